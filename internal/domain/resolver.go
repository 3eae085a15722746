package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxSuggestDistance bounds how far a typo may be from a known alias.
const maxSuggestDistance = 2

var lower = cases.Lower(language.Und)

// Target addresses a watchlist entry either by 1-based position or by alias.
type Target struct {
	Position int
	Alias    string
}

// ParseTarget reads a /watched target. Pure digits are a position,
// anything else is an alias.
func ParseTarget(raw string) Target {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil && !strings.HasPrefix(raw, "-") && !strings.HasPrefix(raw, "+") {
		return Target{Position: n}
	}
	return Target{Alias: NormalizeAlias(raw)}
}

func (t Target) String() string {
	if t.Alias != "" {
		return t.Alias
	}
	return strconv.Itoa(t.Position)
}

// Resolve returns the 0-based index of the entry addressed by t.
func (s *Session) Resolve(t Target) (int, error) {
	if t.Alias == "" {
		i := t.Position - 1
		if err := s.checkIndex(i); err != nil {
			return -1, err
		}
		return i, nil
	}

	alias := NormalizeAlias(t.Alias)
	for i := range s.Watchlist {
		if s.Watchlist[i].Alias == alias {
			return i, nil
		}
	}
	return -1, fmt.Errorf("alias %q: %w", alias, ErrAliasNotFound)
}

// NormalizeAlias lower-cases an alias and joins its words with dashes so it
// stays a single command token.
func NormalizeAlias(raw string) string {
	return strings.Join(strings.Fields(lower.String(raw)), "-")
}

// SuggestAlias returns the closest known alias to raw, or "" when nothing
// is close enough.
func (s *Session) SuggestAlias(raw string) string {
	want := NormalizeAlias(raw)
	if want == "" {
		return ""
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, e := range s.Watchlist {
		if e.Alias == "" {
			continue
		}
		d := levenshtein.ComputeDistance(want, e.Alias)
		if d < bestDist {
			best, bestDist = e.Alias, d
		}
	}
	return best
}
