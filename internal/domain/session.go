package domain

// Candidate is a catalog search hit that has not been committed to a watchlist.
// It only lives inside Session.SearchBuffer.
type Candidate struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`

	// Episodes is 0 when the catalog does not know the episode count yet.
	Episodes int `json:"episodes,omitempty"`

	// StartDate is the first air date as reported by the catalog (RFC 3339).
	StartDate string `json:"start_date,omitempty"`
}

// Detail is the result of a catalog lookup by id.
type Detail struct {
	Title        string
	TitleEnglish string
	EpisodeMax   int
	URL          string
}

// Entry is a committed, tracked watchlist item.
type Entry struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the catalog id. Unique within one watchlist.
	ID int `json:"id"`

	// Alias is a lower-cased user label used by /watched.
	Alias string `json:"alias,omitempty"`

	// ─────────────────────────────
	// Catalog data
	// ─────────────────────────────

	Title        string `json:"title"`
	TitleEnglish string `json:"title_english,omitempty"`
	URL          string `json:"url"`

	// StreamURL overrides URL when rendering links.
	StreamURL string `json:"stream_url,omitempty"`

	// ─────────────────────────────
	// Progress
	// ─────────────────────────────

	// Progress is always within [0, EpisodeMax] when EpisodeMax is known.
	Progress int `json:"progress"`

	// EpisodeMax is 0 when unknown. Unknown means unbounded for clamping.
	EpisodeMax int `json:"episode_max"`

	// Dropped entries stay visible until PurgeDropped.
	Dropped bool `json:"dropped,omitempty"`
}

// Link returns the stream url when set, the catalog url otherwise.
func (e Entry) Link() string {
	if e.StreamURL != "" {
		return e.StreamURL
	}
	return e.URL
}

// MenuState is the state of the update menu bound to a session.
type MenuState string

const (
	MenuClosed             MenuState = ""
	MenuBrowsing           MenuState = "browsing"
	MenuEditingProgress    MenuState = "editing_progress"
	MenuPromptingStreamURL MenuState = "prompting_stream_url"
)

// Session is the per-conversation record. It is loaded at the start of a
// turn, mutated in place by exactly one turn and saved at the end.
type Session struct {
	// ─────────────────────────────
	// Search browsing
	// ─────────────────────────────

	SearchBuffer []Candidate `json:"search_buffer"`
	SearchPage   int         `json:"search_page"`

	// PendingAlias is given to the next accepted candidate.
	PendingAlias string `json:"pending_alias,omitempty"`

	// ─────────────────────────────
	// Watchlist
	// ─────────────────────────────

	// Watchlist is in insertion order, which is also display order.
	Watchlist []Entry `json:"watchlist"`

	// ─────────────────────────────
	// Update menu
	// ─────────────────────────────

	UpdateCursor  int       `json:"update_cursor"`
	Menu          MenuState `json:"menu_state,omitempty"`
	MenuMessageID int       `json:"menu_message_id,omitempty"`
	PromptID      int       `json:"prompt_message_id,omitempty"`

	// ─────────────────────────────
	// Live messages
	// ─────────────────────────────

	// LiveMessageIDs is a set. Only the reconciler removes ids from it.
	LiveMessageIDs []int `json:"live_message_ids"`

	// ─────────────────────────────
	// Bookkeeping
	// ─────────────────────────────

	// Version is bumped by the store on every save.
	Version int64 `json:"version"`

	// Dirty is set by mutations that must reach live messages.
	// It is never persisted.
	Dirty bool `json:"-"`
}

// NewSession returns an empty session with cursor 0.
func NewSession() *Session {
	s := &Session{}
	s.Normalize()
	return s
}

// Normalize defaults every collection to empty and clamps the cursor.
// Stores call it after decoding a record.
func (s *Session) Normalize() {
	if s.SearchBuffer == nil {
		s.SearchBuffer = []Candidate{}
	}
	if s.Watchlist == nil {
		s.Watchlist = []Entry{}
	}
	if s.LiveMessageIDs == nil {
		s.LiveMessageIDs = []int{}
	}
	if s.SearchPage < 0 {
		s.SearchPage = 0
	}
	s.UpdateCursor = clamp(s.UpdateCursor, 0, len(s.Watchlist)-1)
	s.Dirty = false
}

// Reset empties the session but keeps its version.
func (s *Session) Reset() {
	v := s.Version
	*s = Session{Version: v}
	s.Normalize()
}

// BeginTurn clears the transient state left by a previous turn.
func (s *Session) BeginTurn() {
	s.Dirty = false
}

// ─────────────────────────────
// Search buffer
// ─────────────────────────────

// SetSearch replaces the search buffer, dropping candidates already on the
// watchlist, and rewinds to page 0.
func (s *Session) SetSearch(results []Candidate, alias string) {
	s.SearchBuffer = make([]Candidate, 0, len(results))
	for _, c := range results {
		if s.indexOf(c.ID) >= 0 {
			continue
		}
		s.SearchBuffer = append(s.SearchBuffer, c)
	}
	s.SearchPage = 0
	s.PendingAlias = alias
}

// ClearSearch drops the search buffer.
func (s *Session) ClearSearch() {
	s.SearchBuffer = []Candidate{}
	s.SearchPage = 0
}

// Candidate returns the search hit at absolute index i.
func (s *Session) Candidate(i int) (Candidate, error) {
	if i < 0 || i >= len(s.SearchBuffer) {
		return Candidate{}, ErrStaleSearch
	}
	return s.SearchBuffer[i], nil
}

// ─────────────────────────────
// Live messages
// ─────────────────────────────

// RegisterLive adds a message id to the live set.
func (s *Session) RegisterLive(id int) {
	for _, existing := range s.LiveMessageIDs {
		if existing == id {
			return
		}
	}
	s.LiveMessageIDs = append(s.LiveMessageIDs, id)
}

func (s *Session) indexOf(id int) int {
	for i := range s.Watchlist {
		if s.Watchlist[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
