// Package telegram adapts the Bot API client to chat.Transport.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	tele "gopkg.in/telebot.v3"
)

// Descriptions the client library does not map to a sentinel.
const (
	descEditNotFound = "message to edit not found"
	descNotFound     = "message not found"
)

type Adapter struct {
	bot *tele.Bot
}

// New builds an offline client: nothing is sent until a method is called.
func New(apiURL, token string, client *http.Client) (*Adapter, error) {
	if client == nil {
		client = http.DefaultClient
	}
	bot, err := tele.NewBot(tele.Settings{
		URL:       strings.TrimRight(apiURL, "/"),
		Token:     token,
		Client:    client,
		Offline:   true,
		ParseMode: tele.ModeMarkdown,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram client: %w", err)
	}
	return &Adapter{bot: bot}, nil
}

// RegisterWebhook points Telegram at publicURL.
func (a *Adapter) RegisterWebhook(publicURL, secret string) error {
	return a.bot.SetWebhook(&tele.Webhook{
		SecretToken: secret,
		Endpoint:    &tele.WebhookEndpoint{PublicURL: publicURL},
	})
}

func (a *Adapter) Send(ctx context.Context, chatID int64, text string, kb chat.Keyboard) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg, err := a.bot.Send(tele.ChatID(chatID), text, sendOptions(kb))
	if err != nil {
		return 0, fmt.Errorf("send to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

func (a *Adapter) Edit(ctx context.Context, chatID int64, msgID int, text string, kb chat.Keyboard) (chat.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return chat.OutcomeFailed, err
	}
	_, err := a.bot.Edit(stored(chatID, msgID), text, sendOptions(kb))
	return classifyEdit(err)
}

func (a *Adapter) Delete(ctx context.Context, chatID int64, msgID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := a.bot.Delete(stored(chatID, msgID))
	if errors.Is(err, tele.ErrNotFoundToDelete) {
		return nil
	}
	return err
}

func (a *Adapter) Answer(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
}

func (a *Adapter) Prompt(ctx context.Context, chatID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	opts := sendOptions(nil)
	opts.ReplyMarkup = &tele.ReplyMarkup{ForceReply: true}
	msg, err := a.bot.Send(tele.ChatID(chatID), text, opts)
	if err != nil {
		return 0, fmt.Errorf("prompt %d: %w", chatID, err)
	}
	return msg.ID, nil
}

func (a *Adapter) SendPhoto(ctx context.Context, chatID int64, url, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := &tele.Photo{File: tele.FromURL(url), Caption: caption}
	if _, err := a.bot.Send(tele.ChatID(chatID), photo, sendOptions(nil)); err != nil {
		return fmt.Errorf("photo to %d: %w", chatID, err)
	}
	return nil
}

// classifyEdit folds the Bot API answer to an edit into a chat.Outcome.
func classifyEdit(err error) (chat.Outcome, error) {
	switch {
	case err == nil:
		return chat.OutcomeUpdated, nil
	case errors.Is(err, tele.ErrSameMessageContent), errors.Is(err, tele.ErrMessageNotModified):
		return chat.OutcomeUnchanged, nil
	case errors.Is(err, tele.ErrCantEditMessage):
		return chat.OutcomeGone, nil
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, descEditNotFound) || strings.Contains(msg, descNotFound) {
		return chat.OutcomeGone, nil
	}
	return chat.OutcomeFailed, err
}

func sendOptions(kb chat.Keyboard) *tele.SendOptions {
	opts := &tele.SendOptions{
		ParseMode:             tele.ModeMarkdown,
		DisableWebPagePreview: true,
		DisableNotification:   true,
	}
	if len(kb) > 0 {
		opts.ReplyMarkup = &tele.ReplyMarkup{InlineKeyboard: keyboard(kb)}
	}
	return opts
}

func keyboard(kb chat.Keyboard) [][]tele.InlineButton {
	rows := make([][]tele.InlineButton, 0, len(kb))
	for _, r := range kb {
		row := make([]tele.InlineButton, 0, len(r))
		for _, b := range r {
			row = append(row, tele.InlineButton{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, row)
	}
	return rows
}

func stored(chatID int64, msgID int) tele.StoredMessage {
	return tele.StoredMessage{ChatID: chatID, MessageID: strconv.Itoa(msgID)}
}
