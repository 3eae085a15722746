package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/menu"
	"github.com/MrSnakeDoc/animelist/internal/render"
	"github.com/MrSnakeDoc/animelist/internal/texts"
)

// Turn results reported to metrics.
const (
	resultOK        = "ok"
	resultUserError = "user_error"
	resultIgnored   = "ignored"
	resultError     = "error"
)

type turn struct {
	ctx     context.Context
	event   chat.Event
	session *domain.Session
	texts   texts.Texts
	args    []string
}

// Photo is an image reply.
type Photo struct {
	URL     string
	Caption string
}

// Reply describes what a handler wants the user to see.
type Reply struct {
	Text     string
	Keyboard chat.Keyboard

	// Edit replaces the message carrying the pressed button instead of
	// sending a new one.
	Edit bool

	// Answer is shown as the button press notification.
	Answer string

	Photo *Photo

	// Live registers the sent message as a live view.
	Live bool

	// Menu records the sent message as the open update menu.
	Menu bool

	// Prompt sends Text as a forced reply question.
	Prompt bool

	// RefreshMenu re-renders the open update menu in place.
	RefreshMenu bool

	// DeleteSource removes the message carrying the pressed button.
	DeleteSource bool
}

// HandleTurn processes one event for its chat. A returned error means the
// session was not saved.
func (b *Bot) HandleTurn(ctx context.Context, ev chat.Event) error {
	started := time.Now()
	log := b.log.With(logger.ChatID(ev.ChatID))

	s, err := b.store.Load(ctx, ev.ChatID)
	if err != nil {
		b.metrics.Turn(resultError)
		return fmt.Errorf("load session: %w", err)
	}
	s.BeginTurn()

	t := &turn{ctx: ctx, event: ev, session: s, texts: b.texts.Get()}
	r, ok := b.route(t)
	if !ok {
		b.metrics.Turn(resultIgnored)
		log.Debug("ignored update", logger.Bool("callback", ev.IsCallback()))
		if ev.IsCallback() {
			return b.transport.Answer(ctx, ev.CallbackID, "")
		}
		return nil
	}
	t.args = r.args
	log.Debug("turn started", logger.Command(r.name))
	b.metrics.Command(r.name)

	result := resultOK
	reply, err := r.handler(b, t)
	if err != nil {
		text, user := userReply(t.texts, err)
		if !user {
			b.metrics.Turn(resultError)
			log.Error("turn failed", logger.Command(r.name), logger.Error(err))
			if ev.IsCallback() {
				_ = b.transport.Answer(ctx, ev.CallbackID, "")
			}
			return err
		}
		result = resultUserError
		reply = b.errorReply(ev, text)
	}

	if err := b.deliver(t, reply); err != nil {
		b.metrics.Turn(resultError)
		log.Error("reply failed", logger.Command(r.name), logger.Error(err))
		return err
	}

	if s.Dirty && len(s.LiveMessageIDs) > 0 {
		view := render.Watchlist(s.Watchlist, t.texts.EmptyWatchlist)
		report, err := b.reconciler.Reconcile(ctx, ev.ChatID, s.LiveMessageIDs, view)
		if err != nil {
			b.metrics.Turn(resultError)
			log.Error("live sync failed", logger.Error(err))
			return fmt.Errorf("live sync: %w", err)
		}
		s.LiveMessageIDs = report.Retained
	}

	if err := b.store.Save(ctx, ev.ChatID, s); err != nil {
		b.metrics.Turn(resultError)
		log.Error("save session failed", logger.Error(err))
		return fmt.Errorf("save session: %w", err)
	}

	b.metrics.Turn(result)
	log.Info("turn done",
		logger.Command(r.name),
		logger.String("result", result),
		logger.Duration("duration", time.Since(started)))
	return nil
}

// route picks the handler for an event. A pending stream url question
// takes any text that is no command; a command cancels it.
func (b *Bot) route(t *turn) (route, bool) {
	ev := t.event
	if ev.IsCallback() {
		return b.router.matchCallback(ev.Data)
	}

	if menu.Prompting(t.session) {
		if !b.router.isCommand(ev.Text) {
			if ev.ReplyTo != 0 && t.session.PromptID != 0 && ev.ReplyTo != t.session.PromptID {
				return route{}, false
			}
			return route{name: "stream_url", args: []string{ev.Text}, handler: (*Bot).answerPrompt}, true
		}
		menu.CancelPrompt(t.session)
		if r, ok := b.router.matchText(ev.Text); ok {
			return r, true
		}
		// unknown commands still cancel, so the turn has to be saved
		return route{name: "cancel_prompt", handler: (*Bot).cancelPrompt}, true
	}
	return b.router.matchText(ev.Text)
}

// userReply maps errors the user caused to a reply text.
func userReply(tx texts.Texts, err error) (string, bool) {
	if !domain.IsUserError(err) && !errors.Is(err, menu.ErrClosed) && !errors.Is(err, menu.ErrInvalidStreamURL) {
		return "", false
	}
	switch {
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return tx.IndexOutOfRange, true
	case errors.Is(err, domain.ErrAliasNotFound):
		return tx.AliasNotFound, true
	case errors.Is(err, domain.ErrStaleSearch):
		return tx.SearchExpired, true
	case errors.Is(err, menu.ErrClosed):
		return tx.MenuClosed, true
	case errors.Is(err, menu.ErrInvalidStreamURL):
		return tx.InvalidStreamURL, true
	default:
		return fmt.Sprintf(tx.Duplicate, "This show"), true
	}
}

func (b *Bot) errorReply(ev chat.Event, text string) Reply {
	if ev.IsCallback() {
		return Reply{Answer: text}
	}
	return Reply{Text: text}
}

// deliver performs the reply. Menu message deletion is best effort.
func (b *Bot) deliver(t *turn, r Reply) error {
	ctx, ev, s := t.ctx, t.event, t.session

	if ev.IsCallback() {
		if err := b.transport.Answer(ctx, ev.CallbackID, r.Answer); err != nil {
			b.log.Warn("answer callback failed", logger.ChatID(ev.ChatID), logger.Error(err))
		}
	}

	switch {
	case r.Photo != nil:
		if err := b.transport.SendPhoto(ctx, ev.ChatID, r.Photo.URL, r.Photo.Caption); err != nil {
			return err
		}

	case r.Prompt:
		id, err := b.transport.Prompt(ctx, ev.ChatID, r.Text)
		if err != nil {
			return err
		}
		s.PromptID = id

	case r.Edit:
		outcome, err := b.transport.Edit(ctx, ev.ChatID, ev.MessageID, r.Text, r.Keyboard)
		if err != nil {
			return err
		}
		if outcome == chat.OutcomeGone {
			b.log.Debug("button message gone", logger.ChatID(ev.ChatID), logger.Int("message_id", ev.MessageID))
		}

	case r.Text != "":
		id, err := b.transport.Send(ctx, ev.ChatID, r.Text, r.Keyboard)
		if err != nil {
			return err
		}
		if r.Live {
			s.RegisterLive(id)
		}
		if r.Menu {
			s.MenuMessageID = id
		}
	}

	if r.RefreshMenu && s.MenuMessageID != 0 {
		text, kb := menu.Render(s, t.texts.EmptyWatchlist)
		if _, err := b.transport.Edit(ctx, ev.ChatID, s.MenuMessageID, text, kb); err != nil {
			return err
		}
	}

	if r.DeleteSource && ev.MessageID != 0 {
		if err := b.transport.Delete(ctx, ev.ChatID, ev.MessageID); err != nil {
			b.log.Warn("could not delete menu message",
				logger.ChatID(ev.ChatID),
				logger.Int("message_id", ev.MessageID),
				logger.Error(err))
		}
	}
	return nil
}
