package domain

import (
	"context"
	"fmt"
	"math"
)

// DetailLookup resolves catalog details for an accepted candidate.
type DetailLookup func(ctx context.Context, id int) (Detail, error)

// Add commits a candidate to the watchlist.
// The search buffer is cleared on success.
func (s *Session) Add(ctx context.Context, c Candidate, alias string, lookup DetailLookup) (Entry, error) {
	if s.indexOf(c.ID) >= 0 {
		return Entry{}, fmt.Errorf("add %d: %w", c.ID, ErrDuplicateEntry)
	}

	entry := Entry{
		ID:         c.ID,
		Alias:      NormalizeAlias(alias),
		Title:      c.Title,
		URL:        c.URL,
		EpisodeMax: c.Episodes,
	}

	if lookup != nil {
		d, err := lookup(ctx, c.ID)
		if err != nil {
			return Entry{}, fmt.Errorf("lookup %d: %w", c.ID, err)
		}
		entry.TitleEnglish = d.TitleEnglish
		if d.EpisodeMax > 0 {
			entry.EpisodeMax = d.EpisodeMax
		}
		if d.URL != "" {
			entry.URL = d.URL
		}
		if d.Title != "" {
			entry.Title = d.Title
		}
	}
	if entry.TitleEnglish == "" {
		entry.TitleEnglish = entry.Title
	}

	s.Watchlist = append(s.Watchlist, entry)
	s.ClearSearch()
	s.PendingAlias = ""
	s.Dirty = true
	return entry, nil
}

// AdjustProgress moves the progress of entry i by delta and clamps it into
// [0, EpisodeMax]. An unknown EpisodeMax only bounds below.
func (s *Session) AdjustProgress(i, delta int) (Entry, error) {
	if err := s.checkIndex(i); err != nil {
		return Entry{}, err
	}
	e := &s.Watchlist[i]
	next := addSaturated(e.Progress, delta)
	if next < 0 {
		next = 0
	}
	if e.EpisodeMax > 0 && next > e.EpisodeMax {
		next = e.EpisodeMax
	}
	if next != e.Progress {
		e.Progress = next
		s.Dirty = true
	}
	return *e, nil
}

// addSaturated adds delta to a non-negative progress without wrapping.
func addSaturated(progress, delta int) int {
	if delta > 0 && progress > math.MaxInt-delta {
		return math.MaxInt
	}
	return progress + delta
}

// Drop flags entry i as dropped.
func (s *Session) Drop(i int) (Entry, error) {
	if err := s.SetDropped(i, true); err != nil {
		return Entry{}, err
	}
	return s.Watchlist[i], nil
}

// SetDropped writes the dropped flag of entry i.
func (s *Session) SetDropped(i int, dropped bool) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if s.Watchlist[i].Dropped != dropped {
		s.Watchlist[i].Dropped = dropped
		s.Dirty = true
	}
	return nil
}

// IsDropped reads the dropped flag of entry i. Out of range reads false.
func (s *Session) IsDropped(i int) bool {
	if s.checkIndex(i) != nil {
		return false
	}
	return s.Watchlist[i].Dropped
}

// SetAlias replaces the alias of entry i.
func (s *Session) SetAlias(i int, alias string) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.Watchlist[i].Alias = NormalizeAlias(alias)
	s.Dirty = true
	return nil
}

// SetStreamURL replaces the stream url of entry i.
func (s *Session) SetStreamURL(i int, url string) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.Watchlist[i].StreamURL = url
	s.Dirty = true
	return nil
}

// PurgeDropped removes every dropped entry, keeping the order of the rest.
// It returns the number of removed entries.
func (s *Session) PurgeDropped() int {
	kept := make([]Entry, 0, len(s.Watchlist))
	for _, e := range s.Watchlist {
		if !e.Dropped {
			kept = append(kept, e)
		}
	}
	removed := len(s.Watchlist) - len(kept)
	s.Watchlist = kept
	s.UpdateCursor = clamp(s.UpdateCursor, 0, len(s.Watchlist)-1)
	if removed > 0 {
		s.Dirty = true
	}
	return removed
}

// Clear empties the watchlist.
func (s *Session) Clear() {
	s.Watchlist = []Entry{}
	s.UpdateCursor = 0
	s.Dirty = true
}

// MoveCursor shifts the update cursor by delta, clamped to the watchlist.
// It reports whether the cursor moved.
func (s *Session) MoveCursor(delta int) bool {
	if len(s.Watchlist) == 0 {
		return false
	}
	next := clamp(s.UpdateCursor+delta, 0, len(s.Watchlist)-1)
	moved := next != s.UpdateCursor
	s.UpdateCursor = next
	return moved
}

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.Watchlist) {
		return fmt.Errorf("entry %d of %d: %w", i+1, len(s.Watchlist), ErrIndexOutOfRange)
	}
	return nil
}
