package auth

import (
	"errors"
	"strings"
)

var (
	// ErrNotSignedIn is returned by operations that need a session.
	ErrNotSignedIn = errors.New("auth: not signed in")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("auth: no api key configured (set auth_api_key in config.toml)")
)

// Error is a provider or input failure with a message fit for the user.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var messages = map[string]string{
	"EMAIL_NOT_FOUND":             "No account exists for that email.",
	"INVALID_PASSWORD":            "Incorrect password.",
	"INVALID_LOGIN_CREDENTIALS":   "Email or password is incorrect.",
	"INVALID_EMAIL":               "Enter a valid email address.",
	"MISSING_PASSWORD":            "Enter your password.",
	"EMAIL_EXISTS":                "An account with that email already exists. Sign in instead.",
	"WEAK_PASSWORD":               "Password must be at least 6 characters.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many attempts. Wait a moment and try again.",
	"USER_DISABLED":               "This account has been disabled.",
	"INVALID_IDP_RESPONSE":        "The identity provider rejected the credential.",
	"OPERATION_NOT_ALLOWED":       "This sign-in method is not enabled.",
	"INVALID_ID_TOKEN":            "Your session has expired. Sign in again.",
	"TOKEN_EXPIRED":               "Your session has expired. Sign in again.",
}

// providerError maps a provider message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to an *Error.
func providerError(raw string) *Error {
	code, detail, _ := strings.Cut(raw, ":")
	code = strings.TrimSpace(code)
	if msg, ok := messages[code]; ok {
		return &Error{Code: code, Message: msg}
	}
	msg := strings.TrimSpace(detail)
	if msg == "" {
		msg = "Sign-in failed: " + strings.ToLower(strings.ReplaceAll(code, "_", " "))
	}
	return &Error{Code: code, Message: msg}
}
