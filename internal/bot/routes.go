package bot

import (
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/animelist/internal/menu"
	"github.com/MrSnakeDoc/animelist/internal/render"
)

// handlerFunc reacts to one routed event. It mutates only t.session and
// describes everything the user should see in the returned Reply.
type handlerFunc func(b *Bot, t *turn) (Reply, error)

type command struct {
	name    string
	args    string
	handler handlerFunc
}

// commands is the whole text surface. args is the pattern after the
// command word and optional @BotName.
var commands = []command{
	{name: "start", handler: (*Bot).start},
	{name: "help", handler: (*Bot).help},
	{name: "add", args: `\s+(.+)`, handler: (*Bot).search},
	{name: "show", handler: (*Bot).show},
	{name: "drop", args: `\s+(\d+)`, handler: (*Bot).drop},
	{name: "watched", args: `\s+(\S+)\s+([+-]?\d+)`, handler: (*Bot).watched},
	{name: "delete", handler: (*Bot).clear},
	{name: "pic", handler: (*Bot).pic},
	{name: "live", handler: (*Bot).live},
	{name: "update", handler: (*Bot).openMenu},
}

type compiledCommand struct {
	command
	re *regexp.Regexp
}

type route struct {
	name    string
	args    []string
	handler handlerFunc
}

type router struct {
	commands []compiledCommand
	addData  *regexp.Regexp
}

func newRouter(botName string) *router {
	suffix := ""
	if botName = strings.TrimPrefix(botName, "@"); botName != "" {
		suffix = "(?:@" + regexp.QuoteMeta(botName) + ")?"
	}

	r := &router{addData: regexp.MustCompile(`^` + render.DataAddPrefix + `(\d+)$`)}
	for _, c := range commands {
		r.commands = append(r.commands, compiledCommand{
			command: c,
			re:      regexp.MustCompile(`^/` + c.name + suffix + c.args + `$`),
		})
	}
	return r
}

// matchText routes a text message. Text that is no command reports false.
func (r *router) matchText(text string) (route, bool) {
	text = strings.TrimSpace(text)
	for _, c := range r.commands {
		if m := c.re.FindStringSubmatch(text); m != nil {
			return route{name: c.name, args: m[1:], handler: c.handler}, true
		}
	}
	return route{}, false
}

// isCommand reports whether text addresses the bot at all, known or not.
func (r *router) isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// matchCallback routes a button press.
func (r *router) matchCallback(data string) (route, bool) {
	switch data {
	case render.DataPrev:
		return route{name: "prev", handler: (*Bot).prevPage}, true
	case render.DataNext:
		return route{name: "next", handler: (*Bot).nextPage}, true
	}
	if m := r.addData.FindStringSubmatch(data); m != nil {
		return route{name: "accept", args: m[1:], handler: (*Bot).accept}, true
	}
	if a, ok := menu.ParseData(data); ok {
		return route{name: "menu_" + string(a), args: []string{string(a)}, handler: (*Bot).menuAction}, true
	}
	return route{}, false
}
