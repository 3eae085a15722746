package bot

import (
	"fmt"

	"github.com/MrSnakeDoc/animelist/internal/menu"
	"github.com/MrSnakeDoc/animelist/internal/render"
)

func (b *Bot) openMenu(t *turn) (Reply, error) {
	menu.Open(t.session)
	text, kb := menu.Render(t.session, t.texts.EmptyWatchlist)
	return Reply{Text: text, Keyboard: kb, Menu: true}, nil
}

// menuAction applies a button press of the update menu. Presses on any
// message other than the open menu are answered as closed.
func (b *Bot) menuAction(t *turn) (Reply, error) {
	s := t.session
	if s.MenuMessageID != 0 && t.event.MessageID != s.MenuMessageID {
		return Reply{}, menu.ErrClosed
	}

	effect, err := menu.Apply(s, menu.Action(t.args[0]))
	if err != nil {
		return Reply{}, err
	}

	switch effect {
	case menu.EffectClose:
		return Reply{Answer: t.texts.MenuExit, DeleteSource: true}, nil
	case menu.EffectPrompt:
		return Reply{Text: t.texts.StreamURLQuestion, Prompt: true}, nil
	case menu.EffectNone:
		return Reply{}, nil
	}

	text, kb := menu.Render(s, t.texts.EmptyWatchlist)
	return Reply{Text: text, Keyboard: kb, Edit: true}, nil
}

func (b *Bot) cancelPrompt(*turn) (Reply, error) {
	return Reply{}, nil
}

func (b *Bot) answerPrompt(t *turn) (Reply, error) {
	e, err := menu.AnswerPrompt(t.session, t.args[0])
	if err != nil {
		return Reply{}, err
	}
	if e.ID == 0 {
		return Reply{RefreshMenu: true}, nil
	}
	return Reply{Text: fmt.Sprintf(t.texts.StreamURLSaved, render.Escape(e.Title)), RefreshMenu: true}, nil
}
