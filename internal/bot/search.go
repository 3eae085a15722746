package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/pager"
	"github.com/MrSnakeDoc/animelist/internal/render"
)

func (b *Bot) search(t *turn) (Reply, error) {
	query := strings.TrimSpace(t.args[0])

	results, err := b.catalog.Search(t.ctx, query, b.searchLimit)
	if err != nil {
		return Reply{}, fmt.Errorf("search %q: %w", query, err)
	}

	s := t.session
	s.SetSearch(results, domain.NormalizeAlias(query))
	if len(s.SearchBuffer) == 0 {
		return Reply{Text: fmt.Sprintf(t.texts.NotFound, render.Escape(query))}, nil
	}

	page := pager.Paginate(s.SearchBuffer, s.SearchPage)
	return Reply{Text: render.Search(page), Keyboard: render.SearchKeyboard(page)}, nil
}

func (b *Bot) nextPage(t *turn) (Reply, error) {
	return b.turnPage(t, 1)
}

func (b *Bot) prevPage(t *turn) (Reply, error) {
	return b.turnPage(t, -1)
}

// turnPage only moves when the current page offers the matching control.
func (b *Bot) turnPage(t *turn, delta int) (Reply, error) {
	s := t.session
	if len(s.SearchBuffer) == 0 {
		return Reply{}, domain.ErrStaleSearch
	}

	current := pager.Paginate(s.SearchBuffer, s.SearchPage)
	want := pager.ControlNext
	if delta < 0 {
		want = pager.ControlPrev
	}
	if !current.Has(want) {
		return Reply{}, domain.ErrStaleSearch
	}

	s.SearchPage += delta
	page := pager.Paginate(s.SearchBuffer, s.SearchPage)
	return Reply{Text: render.Search(page), Keyboard: render.SearchKeyboard(page), Edit: true}, nil
}

func (b *Bot) accept(t *turn) (Reply, error) {
	s := t.session
	i, err := strconv.Atoi(t.args[0])
	if err != nil {
		return Reply{}, domain.ErrStaleSearch
	}
	c, err := s.Candidate(i)
	if err != nil {
		return Reply{}, err
	}

	entry, err := s.Add(t.ctx, c, s.PendingAlias, b.catalog.Lookup)
	if errors.Is(err, domain.ErrDuplicateEntry) {
		return Reply{Answer: fmt.Sprintf(t.texts.Duplicate, c.Title)}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	return Reply{Text: fmt.Sprintf(t.texts.Added, render.Link(entry)), Edit: true}, nil
}
