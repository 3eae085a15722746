// Package render turns session data into Telegram Markdown text and
// inline keyboards. Everything here is pure.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/pager"
)

// Callback data carried by search keyboards.
const (
	DataPrev      = "prev"
	DataNext      = "next"
	DataAddPrefix = "add_"
)

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// Escape makes s safe outside of Markdown entities.
func Escape(s string) string {
	return markdownEscaper.Replace(s)
}

// linkText makes s safe inside the text part of a Markdown link.
func linkText(s string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}

// Link renders an entry as a Markdown link to its stream or catalog page.
func Link(e domain.Entry) string {
	return fmt.Sprintf("[%s](%s)", linkText(e.Title), e.Link())
}

// CandidateLink renders a search hit as a Markdown link.
func CandidateLink(c domain.Candidate) string {
	return fmt.Sprintf("[%s](%s)", linkText(c.Title), c.URL)
}

// Progress renders "progress/max", with "?" for an unknown max.
func Progress(e domain.Entry) string {
	max := "?"
	if e.EpisodeMax > 0 {
		max = strconv.Itoa(e.EpisodeMax)
	}
	return fmt.Sprintf("%d/%s", e.Progress, max)
}

func glyphPrefix(e domain.Entry) string {
	if g := e.Status().Glyph(); g != "" {
		return g + " "
	}
	return ""
}

// Watchlist renders the list shown by /show and live messages.
// An empty list renders the placeholder.
func Watchlist(entries []domain.Entry, empty string) string {
	if len(entries) == 0 {
		return empty
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s%s (%s)", i+1, glyphPrefix(e), Link(e), Progress(e))
	}
	return b.String()
}

// Search renders one page of search hits.
func Search(page pager.Page[domain.Candidate]) string {
	var b strings.Builder
	for i, c := range page.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s (%s) (%se)", page.Start+i+1, CandidateLink(c), year(c.StartDate), episodes(c.Episodes))
	}
	return b.String()
}

// SearchKeyboard renders the page controls on a single row.
func SearchKeyboard(page pager.Page[domain.Candidate]) chat.Keyboard {
	row := make([]chat.Button, 0, len(page.Controls))
	for _, c := range page.Controls {
		switch c.Kind {
		case pager.ControlPrev:
			row = append(row, chat.Button{Text: "<", Data: DataPrev})
		case pager.ControlNext:
			row = append(row, chat.Button{Text: ">", Data: DataNext})
		case pager.ControlSelect:
			row = append(row, chat.Button{
				Text: strconv.Itoa(c.Index + 1),
				Data: DataAddPrefix + strconv.Itoa(c.Index),
			})
		}
	}
	if len(row) == 0 {
		return nil
	}
	return chat.Keyboard{row}
}

// UpdateMenu renders the update menu body. The row under the cursor is bold.
func UpdateMenu(entries []domain.Entry, cursor int, empty string) string {
	if len(entries) == 0 {
		return empty
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i == cursor {
			title := strings.ReplaceAll(e.Title, "*", "")
			fmt.Fprintf(&b, "*%d. %s%s (%s)*", i+1, glyphPrefix(e), title, Progress(e))
			continue
		}
		fmt.Fprintf(&b, "%d. %s%s (%s)", i+1, glyphPrefix(e), Escape(e.Title), Progress(e))
	}
	return b.String()
}

func year(date string) string {
	if len(date) >= 4 {
		if _, err := strconv.Atoi(date[:4]); err == nil {
			return date[:4]
		}
	}
	return "?"
}

func episodes(n int) string {
	if n <= 0 {
		return "?"
	}
	return strconv.Itoa(n)
}
