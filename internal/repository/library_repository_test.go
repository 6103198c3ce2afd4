package repository

import "testing"

func TestDefaultLibraryStatus(t *testing.T) {
	cases := map[string]string{
		"book":  "to-read",
		"game":  "to-play",
		"music": "to-listen",
		"movie": "",
		"":      "",
	}
	for mediaType, want := range cases {
		if got := DefaultLibraryStatus(mediaType); got != want {
			t.Errorf("DefaultLibraryStatus(%q) = %q, want %q", mediaType, got, want)
		}
	}
}

func TestValidLibraryStatus(t *testing.T) {
	cases := []struct {
		mediaType, status string
		ok, terminal      bool
	}{
		{"book", "to-read", true, false},
		{"book", "reading", true, false},
		{"book", "finished", true, true},
		{"game", "played", true, true},
		{"music", "listening", true, false},
		{"music", "listened", true, true},
		{"book", "played", false, false},
		{"movie", "finished", false, false},
		{"book", "", false, false},
	}
	for _, tc := range cases {
		ok, terminal := ValidLibraryStatus(tc.mediaType, tc.status)
		if ok != tc.ok || terminal != tc.terminal {
			t.Errorf("ValidLibraryStatus(%q, %q) = (%v, %v), want (%v, %v)",
				tc.mediaType, tc.status, ok, terminal, tc.ok, tc.terminal)
		}
	}
}
