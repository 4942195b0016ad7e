package urls

import (
	"strings"
	"testing"
)

func TestAppleMusicSearch(t *testing.T) {
	got := AppleMusicSearch("Daft Punk", "Get Lucky")
	if !strings.Contains(got, "Daft+Punk+Get+Lucky") {
		t.Errorf("AppleMusicSearch() = %q, want it to contain the encoded query", got)
	}
	if !strings.HasPrefix(got, "https://music.apple.com/us/search?") {
		t.Errorf("AppleMusicSearch() = %q, want music.apple.com prefix", got)
	}
}

func TestSpotifySearch(t *testing.T) {
	got := SpotifySearch("AC/DC", "Back In Black")
	if !strings.Contains(got, "AC%2FDC") {
		t.Errorf("SpotifySearch() = %q, want encoded slash", got)
	}
	if !strings.HasPrefix(got, "https://open.spotify.com/search/") {
		t.Errorf("SpotifySearch() = %q, want open.spotify.com prefix", got)
	}
}
