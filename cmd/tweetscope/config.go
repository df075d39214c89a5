// cmd/tweetscope/config.go

package main

import (
	"flag"
	"fmt"
	"strconv"

	"tweetscope/internal/domain/tweet"
)

type Config struct {
	Handle     string
	Limit      int
	Filter     string
	NoTimezone bool
	UTCOffset  *int
	Friends    bool
	NoRetweets bool

	ExportPath string
	JSON       bool
	Save       bool
	NoColor    bool

	Replay    string
	ArchiveDB string
	LogLevel  string
}

func (c Config) Validate() error {
	if c.Handle == "" {
		return fmt.Errorf("missing -n (account handle)")
	}
	if c.Limit <= 0 {
		return fmt.Errorf("-l must be positive, got %d", c.Limit)
	}
	return nil
}

// Options is the analysis configuration handed to the pipeline
func (c Config) Options() tweet.Options {
	return tweet.Options{
		Limit:           c.Limit,
		SourceFilter:    c.Filter,
		ExcludeRetweets: c.NoRetweets,
		NoTimezone:      c.NoTimezone,
		UTCOffset:       c.UTCOffset,
		Friends:         c.Friends,
	}
}

func defaultConfig() Config {
	return Config{
		Limit: 1000,
	}
}

// offsetFlag leaves the target nil until the flag is given, so 0 is a valid override
type offsetFlag struct {
	target **int
}

func (f offsetFlag) String() string {
	if f.target == nil || *f.target == nil {
		return ""
	}
	return strconv.Itoa(**f.target)
}

func (f offsetFlag) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("utc offset must be whole seconds: %w", err)
	}
	*f.target = &v
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.StringVar(&cfg.Handle, "n", "", "Twitter account handle to analyze")
	fs.StringVar(&cfg.Handle, "name", "", "Twitter account handle to analyze (same as -n)")
	fs.IntVar(&cfg.Limit, "l", cfg.Limit, "Maximum number of tweets to analyze")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "Maximum number of tweets to analyze (same as -l)")
	fs.StringVar(&cfg.Filter, "f", "", "Only analyze tweets posted from this source (e.g. \"Twitter Web Client\")")
	fs.StringVar(&cfg.Filter, "filter", "", "Same as -f")
	fs.BoolVar(&cfg.NoTimezone, "no-timezone", false, "Do not shift timestamps by the account timezone")
	fs.Var(offsetFlag{&cfg.UTCOffset}, "utc-offset", "Manual UTC offset in seconds, overrides the account timezone")
	fs.BoolVar(&cfg.Friends, "friends", false, "Also analyze followed accounts (languages and timezones)")
	fs.BoolVar(&cfg.NoRetweets, "no-retweets", false, "Exclude retweets from the analysis")

	fs.StringVar(&cfg.ExportPath, "e", "", "Export the report to this file")
	fs.StringVar(&cfg.ExportPath, "export", "", "Same as -e")
	fs.BoolVar(&cfg.JSON, "j", false, "Print the report as JSON (and export JSON with -e)")
	fs.BoolVar(&cfg.JSON, "json", false, "Same as -j")
	fs.BoolVar(&cfg.Save, "s", false, "Save the raw tweets of this run under the save folder")
	fs.BoolVar(&cfg.Save, "save", false, "Same as -s")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable coloured output")

	fs.StringVar(&cfg.Replay, "replay", "", "Analyze a saved raw tweet file instead of calling the API")
	fs.StringVar(&cfg.ArchiveDB, "archive-db", "", "Also archive every pulled tweet in this SQLite database")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}
