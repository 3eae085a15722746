// Package menu is the update menu state machine.
//
// States are stored on the session (domain.MenuState) so that a button
// press arriving in a later turn continues where the previous turn left
// off. Transitions mutate the session; Render is a pure function of it.
package menu

import (
	"errors"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/render"
)

// Prefix namespaces menu callback data.
const Prefix = "upd"

// Action is a menu button.
type Action string

const (
	ActionUp       Action = "up"
	ActionDown     Action = "down"
	ActionEpisodes Action = "episodes"
	ActionBack     Action = "back"
	ActionMinus3   Action = "m3"
	ActionMinus1   Action = "m1"
	ActionPlus1    Action = "p1"
	ActionPlus3    Action = "p3"
	ActionDrop     Action = "drop"
	ActionURL      Action = "url"
	ActionExit     Action = "exit"
)

var deltas = map[Action]int{
	ActionMinus3: -3,
	ActionMinus1: -1,
	ActionPlus1:  1,
	ActionPlus3:  3,
}

var known = map[Action]bool{
	ActionUp: true, ActionDown: true, ActionEpisodes: true, ActionBack: true,
	ActionMinus3: true, ActionMinus1: true, ActionPlus1: true, ActionPlus3: true,
	ActionDrop: true, ActionURL: true, ActionExit: true,
}

var (
	// ErrClosed is returned for button presses on a menu that was exited.
	ErrClosed = errors.New("menu closed")

	// ErrNotPrompting is returned by AnswerPrompt outside of the prompt state.
	ErrNotPrompting = errors.New("no pending question")

	// ErrInvalidStreamURL is returned by AnswerPrompt for answers that
	// cannot be used as a Markdown link target.
	ErrInvalidStreamURL = errors.New("invalid stream url")
)

// Effect tells the caller what to do with the menu message.
type Effect int

const (
	// EffectRerender edits the menu message with Render.
	EffectRerender Effect = iota
	// EffectPrompt sends the stream url question.
	EffectPrompt
	// EffectClose deletes the menu message.
	EffectClose
	// EffectNone only acknowledges the press.
	EffectNone
)

// Data returns the callback data for a.
func Data(a Action) string {
	return Prefix + ":" + string(a)
}

// ParseData extracts the action from callback data.
func ParseData(data string) (Action, bool) {
	rest, ok := strings.CutPrefix(data, Prefix+":")
	if !ok {
		return "", false
	}
	a := Action(rest)
	return a, known[a]
}

// Open enters Browsing. The cursor is kept from the previous menu session.
func Open(s *domain.Session) {
	s.Menu = domain.MenuBrowsing
	s.PromptID = 0
}

// Apply runs one button press against the session.
func Apply(s *domain.Session, a Action) (Effect, error) {
	switch s.Menu {
	case domain.MenuClosed:
		return EffectNone, ErrClosed
	case domain.MenuPromptingStreamURL:
		// a button press abandons the pending question
		CancelPrompt(s)
	}

	if s.Menu == domain.MenuEditingProgress {
		return editing(s, a), nil
	}
	return browsing(s, a), nil
}

func browsing(s *domain.Session, a Action) Effect {
	switch a {
	case ActionUp:
		s.MoveCursor(-1)
	case ActionDown:
		s.MoveCursor(1)
	case ActionEpisodes:
		s.Menu = domain.MenuEditingProgress
	case ActionDrop:
		if len(s.Watchlist) > 0 {
			_ = s.SetDropped(s.UpdateCursor, !s.IsDropped(s.UpdateCursor))
		}
	case ActionURL:
		if len(s.Watchlist) == 0 {
			return EffectNone
		}
		s.Menu = domain.MenuPromptingStreamURL
		return EffectPrompt
	case ActionExit:
		exit(s)
		return EffectClose
	}
	return EffectRerender
}

func editing(s *domain.Session, a Action) Effect {
	if d, ok := deltas[a]; ok {
		if len(s.Watchlist) > 0 {
			_, _ = s.AdjustProgress(s.UpdateCursor, d)
		}
		return EffectRerender
	}
	if a == ActionBack {
		s.Menu = domain.MenuBrowsing
	}
	return EffectRerender
}

func exit(s *domain.Session) {
	s.PurgeDropped()
	s.UpdateCursor = 0
	s.Dirty = true
	s.Menu = domain.MenuClosed
	s.MenuMessageID = 0
	s.PromptID = 0
}

// Prompting reports whether the menu waits for a stream url.
func Prompting(s *domain.Session) bool {
	return s.Menu == domain.MenuPromptingStreamURL
}

// AnswerPrompt stores answer as the stream url of the entry under the
// cursor and returns to Browsing. An empty answer leaves the entry as is,
// so does one that is no absolute http(s) url.
func AnswerPrompt(s *domain.Session, answer string) (domain.Entry, error) {
	if !Prompting(s) {
		return domain.Entry{}, ErrNotPrompting
	}
	s.Menu = domain.MenuBrowsing
	s.PromptID = 0

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return domain.Entry{}, nil
	}
	if !validStreamURL(answer) {
		return domain.Entry{}, ErrInvalidStreamURL
	}
	if err := s.SetStreamURL(s.UpdateCursor, answer); err != nil {
		return domain.Entry{}, err
	}
	return s.Watchlist[s.UpdateCursor], nil
}

// validStreamURL accepts absolute http(s) urls that can sit inside the
// parentheses of a Markdown link.
func validStreamURL(raw string) bool {
	if strings.ContainsAny(raw, " \t\n()[]") {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// CancelPrompt drops a pending question without touching the watchlist.
func CancelPrompt(s *domain.Session) {
	if Prompting(s) {
		s.Menu = domain.MenuBrowsing
		s.PromptID = 0
	}
}

// Render returns the menu text and keyboard for the current state.
func Render(s *domain.Session, empty string) (string, chat.Keyboard) {
	text := render.UpdateMenu(s.Watchlist, s.UpdateCursor, empty)

	switch s.Menu {
	case domain.MenuClosed:
		return text, nil
	case domain.MenuEditingProgress:
		return text, chat.Keyboard{
			{button("-3", ActionMinus3), button("-1", ActionMinus1), button("+1", ActionPlus1), button("+3", ActionPlus3)},
			{button("back", ActionBack)},
		}
	}

	drop := "drop"
	if s.IsDropped(s.UpdateCursor) {
		drop = "✅ drop"
	}
	return text, chat.Keyboard{
		{button("⬆️", ActionUp), button("⬇️", ActionDown), button("episodes", ActionEpisodes)},
		{button("url", ActionURL), button(drop, ActionDrop)},
		{button("exit", ActionExit)},
	}
}

func button(text string, a Action) chat.Button {
	return chat.Button{Text: text, Data: Data(a)}
}
