// Package chat holds the transport neutral types the bot core talks in.
package chat

import "context"

// Button is an inline button. Exactly one of Data or URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a grid of inline buttons, row by row.
type Keyboard [][]Button

// Outcome classifies the result of editing a previously sent message.
type Outcome int

const (
	OutcomeUpdated Outcome = iota
	// OutcomeUnchanged means the message already had this content.
	OutcomeUnchanged
	// OutcomeGone means the message can no longer be addressed.
	OutcomeGone
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeGone:
		return "gone"
	default:
		return "failed"
	}
}

// Transport sends, edits and deletes messages in one chat.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) (int, error)
	// Edit returns OutcomeFailed together with a non-nil error for
	// anything that is neither a success nor a tolerated failure.
	Edit(ctx context.Context, chatID int64, msgID int, text string, kb Keyboard) (Outcome, error)
	Delete(ctx context.Context, chatID int64, msgID int) error
	Answer(ctx context.Context, callbackID, text string) error
	// Prompt sends a message that forces the client into reply mode.
	Prompt(ctx context.Context, chatID int64, text string) (int, error)
	SendPhoto(ctx context.Context, chatID int64, url, caption string) error
}

// Event is one inbound update, either a text message or a button press.
type Event struct {
	ChatID int64

	// Text is set for messages.
	Text string

	// ReplyTo is the id of the message a text message replies to.
	ReplyTo int

	// CallbackID and Data are set for button presses. MessageID is the
	// message that carried the button.
	CallbackID string
	Data       string
	MessageID  int
}

// IsCallback reports whether the event is a button press.
func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}
