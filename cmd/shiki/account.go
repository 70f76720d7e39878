package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shiki/internal/app"
	"github.com/five82/shiki/internal/auth"
	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/tracking"
)

func newLoginCmd(flags *globalFlags, signUp bool) *cobra.Command {
	var email, name, provider string
	use, short := "login", "Sign in with email and password, or a provider ID token"
	if signUp {
		use, short = "signup", "Create an account with email and password"
	}
	long := short + `.

The password is read from the first line of standard input so it stays out
of shell history:

  printf '%s\n' "$PASSWORD" | shiki ` + use + ` --email you@example.com`
	if !signUp {
		long += `

With --provider, the first line of standard input is an ID token issued by
that provider instead:

  printf '%s\n' "$GOOGLE_ID_TOKEN" | shiki login --provider google.com`
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case provider != "" && email != "":
				return errors.New("--email and --provider cannot be combined")
			case provider == "" && email == "":
				return errors.New("--email is required")
			}
			secret, err := readSecret(cmd.InOrStdin(), provider != "")
			if err != nil {
				return err
			}
			return withEnv(cmd, flags, func(ctx context.Context, env *app.Env) error {
				var user *auth.User
				switch {
				case provider != "":
					user, err = env.Auth.SignInWithCredential(ctx, provider, secret)
				case signUp:
					user, err = env.Auth.SignUpWithEmail(ctx, email, secret, name)
				default:
					user, err = env.Auth.SignInWithEmail(ctx, email, secret)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", catalog.DisplayName(user))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	if signUp {
		cmd.Flags().StringVar(&name, "name", "", "display name")
	} else {
		cmd.Flags().StringVar(&provider, "provider", "", "identity provider id for ID-token sign-in (e.g. google.com)")
	}
	return cmd
}

// readSecret reads the password, or the ID token when token is set, from the
// first line of r.
func readSecret(r io.Reader, token bool) (string, error) {
	what := "password"
	if token {
		what = "ID token"
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", what, err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if token {
		secret = strings.TrimSpace(secret)
	}
	if secret == "" {
		return "", fmt.Errorf("no %s on standard input", what)
	}
	return secret, nil
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, env *app.Env) error {
				err := env.Auth.SignOut(ctx)
				if errors.Is(err, auth.ErrNotSignedIn) {
					fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and list sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, env *app.Env) error {
				user := env.Auth.Current()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, catalog.DisplayName(user))
				if user != nil && user.Email != "" {
					fmt.Fprintln(out, user.Email)
				}
				if user == nil && !env.Auth.Enabled() {
					fmt.Fprintln(out, "sign-in disabled: set auth_api_key in config.toml")
				}
				fmt.Fprintf(out, "tracked: %d  watch later: %d\n",
					env.Tracking.Len(tracking.Tracked), env.Tracking.Len(tracking.WatchLater))
				return nil
			})
		},
	}
}
