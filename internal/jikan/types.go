package jikan

import (
	"strconv"
	"strings"
	"time"
)

// StatusCurrentlyAiring is the status string Jikan reports for running shows.
const StatusCurrentlyAiring = "Currently Airing"

// Anime is one catalog record. Numeric fields the API may send as null are
// pointers.
type Anime struct {
	MalID         int       `json:"mal_id"`
	URL           string    `json:"url"`
	Images        Images    `json:"images"`
	Title         string    `json:"title"`
	TitleEnglish  string    `json:"title_english"`
	TitleJapanese string    `json:"title_japanese"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Episodes      *int      `json:"episodes"`
	Status        string    `json:"status"`
	Airing        bool      `json:"airing"`
	Aired         Aired     `json:"aired"`
	Duration      string    `json:"duration"`
	Rating        string    `json:"rating"`
	Score         *float64  `json:"score"`
	ScoredBy      *int      `json:"scored_by"`
	Rank          *int      `json:"rank"`
	Popularity    *int      `json:"popularity"`
	Members       *int      `json:"members"`
	Favorites     *int      `json:"favorites"`
	Synopsis      string    `json:"synopsis"`
	Season        string    `json:"season"`
	Year          *int      `json:"year"`
	Broadcast     Broadcast `json:"broadcast"`
	Studios       []Entity  `json:"studios"`
	Genres        []Entity  `json:"genres"`
	Themes        []Entity  `json:"themes"`
	Streaming     []Link    `json:"streaming"`
}

// ID returns the identifier in the string form the tracked lists use.
func (a Anime) ID() string {
	return strconv.Itoa(a.MalID)
}

// DisplayTitle prefers the English title when one exists.
func (a Anime) DisplayTitle() string {
	if t := strings.TrimSpace(a.TitleEnglish); t != "" {
		return t
	}
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return "Untitled"
}

// ImageURL returns the best available poster URL, or "".
func (a Anime) ImageURL() string {
	return a.Images.Best()
}

// IsAiring reports whether the show is currently broadcasting.
func (a Anime) IsAiring() bool {
	return a.Status == StatusCurrentlyAiring
}

// GenreNames returns the genre names in API order.
func (a Anime) GenreNames() []string {
	names := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return names
}

// Images groups the per-format image sets.
type Images struct {
	JPG  ImageSet `json:"jpg"`
	WebP ImageSet `json:"webp"`
}

// Best picks the largest jpg, then smaller jpgs, then webp.
func (i Images) Best() string {
	for _, u := range []string{
		i.JPG.LargeImageURL, i.JPG.ImageURL, i.JPG.SmallImageURL,
		i.WebP.LargeImageURL, i.WebP.ImageURL,
	} {
		if u != "" {
			return u
		}
	}
	return ""
}

// ImageSet holds URLs at different sizes.
type ImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

// Aired is the airing window.
type Aired struct {
	From   *time.Time `json:"from"`
	To     *time.Time `json:"to"`
	String string     `json:"string"`
}

// Broadcast describes the weekly slot in Japan.
type Broadcast struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	String   string `json:"string"`
}

// Entity is a named reference such as a genre or studio.
type Entity struct {
	MalID int    `json:"mal_id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// Link is a named external URL.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Character is one cast entry on the detail view.
type Character struct {
	Character struct {
		MalID  int    `json:"mal_id"`
		URL    string `json:"url"`
		Images Images `json:"images"`
		Name   string `json:"name"`
	} `json:"character"`
	Role        string       `json:"role"`
	VoiceActors []VoiceActor `json:"voice_actors"`
}

// VoiceActor is a person credited for a character.
type VoiceActor struct {
	Person struct {
		MalID int    `json:"mal_id"`
		URL   string `json:"url"`
		Name  string `json:"name"`
	} `json:"person"`
	Language string `json:"language"`
}

// JapaneseVoice returns the first Japanese voice actor name, or "".
func (c Character) JapaneseVoice() string {
	for _, va := range c.VoiceActors {
		if va.Language == "Japanese" {
			return va.Person.Name
		}
	}
	return ""
}

// Recommendation links to a related show.
type Recommendation struct {
	Entry struct {
		MalID  int    `json:"mal_id"`
		URL    string `json:"url"`
		Images Images `json:"images"`
		Title  string `json:"title"`
	} `json:"entry"`
	URL   string `json:"url"`
	Votes int    `json:"votes"`
}

// ID returns the recommended show's identifier.
func (r Recommendation) ID() string {
	return strconv.Itoa(r.Entry.MalID)
}

// Pagination is the list envelope's paging block.
type Pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
	Items           struct {
		Count   int `json:"count"`
		Total   int `json:"total"`
		PerPage int `json:"per_page"`
	} `json:"items"`
}
