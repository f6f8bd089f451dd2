package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"readstats/lib/configutil"
	"readstats/lib/cookies"
	"readstats/lib/mailer"
	"readstats/lib/restyutil"
	"readstats/lib/scraper"
	"readstats/lib/scrapers/ao3"
	"readstats/lib/scrapers/fanfiction"
	"readstats/services/readstats"
	"readstats/services/readstats/db"
)

type CookieConfig struct {
	// a Firefox cookies.sqlite, takes precedence over the profile lookup
	File string `json:"file"`
	// the directory holding profiles.ini, defaults to ~/.mozilla/firefox
	FirefoxDir string `json:"firefox_dir"`
}

type FetchConfig struct {
	BaseUrl      string `json:"base_url"`
	Ao3BaseUrl   string `json:"ao3_base_url"`
	DelaySeconds int    `json:"delay_seconds"`
	// seconds before a page request gives up
	TimeoutSeconds int `json:"timeout_seconds"`
	// dump every response into this directory when set
	DumpDir string `json:"dump_dir"`
}

type Config struct {
	Database string `json:"database"`
	// change reports are appended here as well as printed
	LogFile  string       `json:"log_file"`
	Cookies  CookieConfig `json:"cookies"`
	Fetch    FetchConfig  `json:"fetch"`
	Ao3User  string       `json:"ao3_user"`
	Schedule string       `json:"schedule"`
	// IANA zone the schedule runs in, defaults to the local zone
	Timezone string        `json:"timezone"`
	Mail     mailer.Config `json:"mail"`
}

var defaults = Config{
	Database: "dbs/readstats.db",
	Fetch: FetchConfig{
		BaseUrl:        fanfiction.BaseUrl,
		Ao3BaseUrl:     ao3.BaseUrl,
		DelaySeconds:   8,
		TimeoutSeconds: 18,
	},
	Schedule: "0 */6 * * *",
}

func loadConfig() (Config, error) {
	cfg, err := configutil.ReadWithDefaults(configPath, defaults)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", configPath, err)
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}
	return cfg, nil
}

func loadCookies(ctx context.Context, cfg CookieConfig, host string) ([]*http.Cookie, error) {
	if cfg.File != "" {
		return cookies.Read(ctx, cfg.File, host)
	}
	profile, err := cookies.ProfileDir(cfg.FirefoxDir)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "reading cookies from firefox profile", "profile", profile)
	return cookies.FromProfile(ctx, profile, host)
}

func newClient(ctx context.Context, cfg Config, baseUrl, host, marker, tracerName string) (*scraper.Client, error) {
	jar, err := loadCookies(ctx, cfg.Cookies, host)
	if err != nil {
		return nil, fmt.Errorf("cookies for %s: %w", host, err)
	}

	var dump restyutil.Output
	if cfg.Fetch.DumpDir != "" {
		out, err := restyutil.NewFilesystemOutput(cfg.Fetch.DumpDir + "/" + host)
		if err != nil {
			return nil, err
		}
		dump = out
	}

	return scraper.NewClient(scraper.ClientOptions{
		BaseUrl:         baseUrl,
		Cookies:         jar,
		Delay:           time.Duration(cfg.Fetch.DelaySeconds) * time.Second,
		Timeout:         time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		LoggedOutMarker: marker,
		TracerName:      tracerName,
		Dump:            dump,
	})
}

type session struct {
	service readstats.Service
	close   func()
}

// openSession opens the baseline store and the fetch clients. The
// archive client is only built when withAO3 is set.
func openSession(ctx context.Context, cfg Config, out io.Writer, withAO3 bool) (session, error) {
	database, err := db.Open(cfg.Database)
	if err != nil {
		return session{}, fmt.Errorf("open %s: %w", cfg.Database, err)
	}

	ff, err := newClient(ctx, cfg, cfg.Fetch.BaseUrl, fanfiction.CookieHost, fanfiction.LoggedOutMarker, "readstats.http.fanfiction")
	if err != nil {
		database.Close()
		return session{}, err
	}
	closers := []func(){ff.Close, func() { database.Close() }}

	var archive scraper.Fetcher
	if withAO3 {
		client, err := newClient(ctx, cfg, cfg.Fetch.Ao3BaseUrl, "archiveofourown.org", "", "readstats.http.ao3")
		if err != nil {
			ff.Close()
			database.Close()
			return session{}, err
		}
		archive = client
		closers = append(closers, client.Close)
	}

	return session{
		service: readstats.NewService(database, ff, archive, out),
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

// reportWriter is stdout, plus the configured log file when there is one.
func reportWriter(cfg Config) (io.Writer, func(), error) {
	if cfg.LogFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return io.MultiWriter(os.Stdout, f), func() { f.Close() }, nil
}
