package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/render"
)

func (b *Bot) start(t *turn) (Reply, error) {
	t.session.Reset()
	return Reply{Text: t.texts.Greeting}, nil
}

func (b *Bot) help(t *turn) (Reply, error) {
	return Reply{Text: t.texts.Help}, nil
}

func (b *Bot) show(t *turn) (Reply, error) {
	return Reply{Text: render.Watchlist(t.session.Watchlist, t.texts.EmptyWatchlist)}, nil
}

func (b *Bot) live(t *turn) (Reply, error) {
	return Reply{Text: render.Watchlist(t.session.Watchlist, t.texts.EmptyWatchlist), Live: true}, nil
}

func (b *Bot) drop(t *turn) (Reply, error) {
	n, err := strconv.Atoi(t.args[0])
	if err != nil {
		return Reply{}, domain.ErrIndexOutOfRange
	}
	e, err := t.session.Drop(n - 1)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf(t.texts.Dropped, render.Escape(e.Title))}, nil
}

func (b *Bot) watched(t *turn) (Reply, error) {
	s := t.session
	target := domain.ParseTarget(t.args[0])
	delta, err := strconv.Atoi(strings.TrimPrefix(t.args[1], "+"))
	if err != nil {
		return Reply{}, domain.ErrIndexOutOfRange
	}

	i, err := s.Resolve(target)
	if errors.Is(err, domain.ErrAliasNotFound) {
		text := t.texts.AliasNotFound
		if guess := s.SuggestAlias(target.Alias); guess != "" {
			text += " " + fmt.Sprintf(t.texts.AliasSuggestion, guess)
		}
		return Reply{Text: text}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	e, err := s.AdjustProgress(i, delta)
	if err != nil {
		return Reply{}, err
	}
	if e.Status() == domain.StatusFinished {
		return Reply{Text: fmt.Sprintf(t.texts.Finished, render.Escape(e.Title))}, nil
	}
	return Reply{Text: fmt.Sprintf(t.texts.Updated, render.Escape(e.Title))}, nil
}

func (b *Bot) clear(t *turn) (Reply, error) {
	t.session.Clear()
	return Reply{Text: t.texts.Deleted}, nil
}

func (b *Bot) pic(t *turn) (Reply, error) {
	list := t.session.Watchlist
	if len(list) == 0 {
		return Reply{Text: t.texts.NoPicSource}, nil
	}

	e := list[b.rand(len(list))]
	term := e.TitleEnglish
	if term == "" {
		term = e.Title
	}

	res, err := b.wallpapers.Search(t.ctx, term)
	if err != nil {
		return Reply{}, fmt.Errorf("wallpapers for %q: %w", term, err)
	}
	if !res.Success || res.TotalMatches <= 0 || len(res.Items) == 0 {
		return Reply{Text: t.texts.NoPics}, nil
	}

	img := res.Items[b.rand(len(res.Items))]
	return Reply{Photo: &Photo{URL: img.ImageURL, Caption: img.PageURL}}, nil
}
