package telegram

import (
	"github.com/MrSnakeDoc/animelist/internal/chat"
	tele "gopkg.in/telebot.v3"
)

// EventFromUpdate extracts the part of an update the bot reacts to.
// Updates without a chat, like inline queries, report false.
func EventFromUpdate(u tele.Update) (chat.Event, bool) {
	switch {
	case u.Callback != nil:
		cb := u.Callback
		if cb.Message == nil || cb.Message.Chat == nil {
			return chat.Event{}, false
		}
		return chat.Event{
			ChatID:     cb.Message.Chat.ID,
			CallbackID: cb.ID,
			Data:       cb.Data,
			MessageID:  cb.Message.ID,
		}, true

	case u.Message != nil:
		m := u.Message
		if m.Chat == nil || m.Text == "" {
			return chat.Event{}, false
		}
		ev := chat.Event{ChatID: m.Chat.ID, Text: m.Text}
		if m.ReplyTo != nil {
			ev.ReplyTo = m.ReplyTo.ID
		}
		return ev, true
	}
	return chat.Event{}, false
}
