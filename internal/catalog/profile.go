package catalog

import (
	"context"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/five82/shiki/internal/auth"
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/tracking"
)

// GuestName is shown when nobody is signed in or no name can be derived.
const GuestName = "Guest User"

// Profile is the profile screen's content.
type Profile struct {
	SignedIn        bool
	DisplayName     string
	AvatarURL       string
	Email           string
	TrackedCount    int
	WatchLaterCount int
	// AiringWatchLater lists watch-later shows that are currently airing.
	// It stays empty for guests.
	AiringWatchLater []jikan.Anime
}

// Profile builds the profile for user, which may be nil. For a signed-in
// user it waits for the lists to load and fetches every watch-later id.
func (s *Service) Profile(ctx context.Context, user *auth.User) (Profile, error) {
	name := DisplayName(user)
	p := Profile{
		SignedIn:         user != nil,
		DisplayName:      name,
		AvatarURL:        AvatarURL(user, name),
		AiringWatchLater: []jikan.Anime{},
	}
	if user != nil {
		p.Email = user.Email
	}
	if err := s.store.WaitReady(ctx); err != nil {
		return p, err
	}
	p.TrackedCount = s.store.Len(tracking.Tracked)
	p.WatchLaterCount = s.store.Len(tracking.WatchLater)
	if user == nil || p.WatchLaterCount == 0 {
		return p, nil
	}

	items, err := s.fetcher.FetchMany(ctx, s.store.IDs(tracking.WatchLater))
	for _, a := range items {
		if a.IsAiring() {
			p.AiringWatchLater = append(p.AiringWatchLater, a)
		}
	}
	return p, err
}

// DisplayName picks the user's display name, then the capitalized local part
// of their email, then GuestName.
func DisplayName(user *auth.User) string {
	if user == nil {
		return GuestName
	}
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		return name
	}
	if user.Email != "" {
		local, _, _ := strings.Cut(user.Email, "@")
		if local != "" {
			r, size := utf8.DecodeRuneInString(local)
			return string(unicode.ToUpper(r)) + local[size:]
		}
	}
	return GuestName
}

// AvatarURL returns the user's photo, else a generated initial avatar, else
// "" for guests.
func AvatarURL(user *auth.User, displayName string) string {
	if user != nil && user.PhotoURL != "" {
		return user.PhotoURL
	}
	if displayName == "" || displayName == GuestName {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(displayName)
	q := url.Values{}
	q.Set("name", string(r))
	q.Set("background", "random")
	q.Set("color", "fff")
	q.Set("size", "128")
	return "https://ui-avatars.com/api/?" + q.Encode()
}
