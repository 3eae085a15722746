// Package texts holds every reply the bot sends. Defaults can be
// overridden key by key from a YAML file.
package texts

// Texts are reply templates. Fields ending in a %s verb are used with
// fmt.Sprintf.
type Texts struct {
	Greeting string `yaml:"greeting"`
	Help     string `yaml:"help"`

	// Search
	NotFound      string `yaml:"not_found"`
	SearchExpired string `yaml:"search_expired"`
	Added         string `yaml:"added"`
	Duplicate     string `yaml:"duplicate"`

	// Watchlist
	EmptyWatchlist  string `yaml:"empty_watchlist"`
	IndexOutOfRange string `yaml:"index_out_of_range"`
	AliasNotFound   string `yaml:"alias_not_found"`
	AliasSuggestion string `yaml:"alias_suggestion"`
	Finished        string `yaml:"finished"`
	Updated         string `yaml:"updated"`
	Dropped         string `yaml:"dropped"`
	Deleted         string `yaml:"deleted"`

	// Pictures
	NoPicSource string `yaml:"no_pic_source"`
	NoPics      string `yaml:"no_pics"`

	// Update menu
	MenuExit          string `yaml:"menu_exit"`
	MenuClosed        string `yaml:"menu_closed"`
	StreamURLQuestion string `yaml:"stream_url_question"`
	StreamURLSaved    string `yaml:"stream_url_saved"`
	InvalidStreamURL  string `yaml:"invalid_stream_url"`
}

// Default returns the built-in texts.
func Default() Texts {
	return Texts{
		Greeting: "Hello, I'm the anime list bot",
		Help: "I can help organize anime watchlists.\n\n" +
			"/add <name> to search for a name on MAL and add it to the watchlist\n" +
			"/show to print the watchlist\n" +
			"/watched <n|alias> <amount> to mark episodes as watched\n" +
			"/drop <n> to drop an anime\n" +
			"/delete to clear the watchlist\n" +
			"/live so that I send a watchlist message that gets live updates\n" +
			"/update to update the watchlist\n" +
			"/pic so that I send a picture of a random anime in the watchlist.",

		NotFound:      "Sorry I could not find anything with the name (%s)",
		SearchExpired: "This search has expired.",
		Added:         "Added %s",
		Duplicate:     "%s is already on the watchlist.",

		EmptyWatchlist:  "Watchlist empty. You should weeb more.",
		IndexOutOfRange: "Index not in range of watchlist 💥",
		AliasNotFound:   "Could not find an anime with that alias,",
		AliasSuggestion: "did you mean %s?",
		Finished:        "Finished %s 🔥",
		Updated:         "Updated %s",
		Dropped:         "Dropped %s",
		Deleted:         "Deleted watchlist",

		NoPicSource: "Nothing on watchlist to get images from.",
		NoPics:      "Found no images 😓",

		MenuExit:          "Updated successfully.",
		MenuClosed:        "This menu is closed.",
		StreamURLQuestion: "Stream url for this anime?",
		StreamURLSaved:    "Saved stream url for %s",
		InvalidStreamURL:  "That does not look like a link, the stream url was not changed.",
	}
}

// merge copies every non-empty field of o over t.
func (t *Texts) merge(o Texts) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&t.Greeting, o.Greeting)
	set(&t.Help, o.Help)
	set(&t.NotFound, o.NotFound)
	set(&t.SearchExpired, o.SearchExpired)
	set(&t.Added, o.Added)
	set(&t.Duplicate, o.Duplicate)
	set(&t.EmptyWatchlist, o.EmptyWatchlist)
	set(&t.IndexOutOfRange, o.IndexOutOfRange)
	set(&t.AliasNotFound, o.AliasNotFound)
	set(&t.AliasSuggestion, o.AliasSuggestion)
	set(&t.Finished, o.Finished)
	set(&t.Updated, o.Updated)
	set(&t.Dropped, o.Dropped)
	set(&t.Deleted, o.Deleted)
	set(&t.NoPicSource, o.NoPicSource)
	set(&t.NoPics, o.NoPics)
	set(&t.MenuExit, o.MenuExit)
	set(&t.MenuClosed, o.MenuClosed)
	set(&t.StreamURLQuestion, o.StreamURLQuestion)
	set(&t.StreamURLSaved, o.StreamURLSaved)
	set(&t.InvalidStreamURL, o.InvalidStreamURL)
}
