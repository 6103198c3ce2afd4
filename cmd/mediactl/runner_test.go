package main

import (
	"testing"

	"github.com/mediashelf/mediashelf/internal/repository"
)

func TestStrayWatchlistRows(t *testing.T) {
	items := []repository.WatchlistItem{
		{ID: 1, UserID: 7},
		{ID: 2, UserID: 9},
		{ID: 3, UserID: 7},
	}

	t.Run("FlagsForeignRows", func(t *testing.T) {
		stray := strayWatchlistRows(7, items)
		if len(stray) != 1 || stray[0] != 2 {
			t.Errorf("stray = %v, want [2]", stray)
		}
	})

	t.Run("CleanListingPasses", func(t *testing.T) {
		if stray := strayWatchlistRows(7, items[:1]); stray != nil {
			t.Errorf("stray = %v, want none", stray)
		}
	})
}

func TestStrayLibraryRows(t *testing.T) {
	entries := []repository.LibraryEntry{
		{ID: 4, UserID: 3},
		{ID: 5, UserID: 3},
		{ID: 6, UserID: 8},
	}
	stray := strayLibraryRows(3, entries)
	if len(stray) != 1 || stray[0] != 6 {
		t.Errorf("stray = %v, want [6]", stray)
	}
}
