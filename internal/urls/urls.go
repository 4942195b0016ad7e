// Package urls builds provider-specific deep links used for optional Discord
// Rich Presence buttons. No URL-encoding library appears anywhere in the
// retrieved pack, and the job is two calls to net/url, so this stays on the
// standard library (see DESIGN.md).
package urls

import "net/url"

// AppleMusicSearch returns an Apple Music search URL for the given artist and
// title, mirroring original_source/crates/core/src/urls.rs.
func AppleMusicSearch(artist, title string) string {
	q := artist + " " + title
	v := url.Values{}
	v.Set("term", q)
	return "https://music.apple.com/us/search?" + v.Encode()
}

// SpotifySearch returns a Spotify search URL for the given artist and title.
func SpotifySearch(artist, title string) string {
	q := artist + " " + title
	return "https://open.spotify.com/search/" + url.PathEscape(q)
}
