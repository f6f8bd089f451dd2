package cookies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	_ "modernc.org/sqlite"
)

var ErrNoProfile = errors.New("no firefox profile found")

// ProfileDir finds the default Firefox profile listed in
// <firefoxDir>/profiles.ini. An empty firefoxDir means ~/.mozilla/firefox.
func ProfileDir(firefoxDir string) (string, error) {
	if firefoxDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		firefoxDir = filepath.Join(home, ".mozilla", "firefox")
	}

	cfg, err := ini.Load(filepath.Join(firefoxDir, "profiles.ini"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoProfile, err)
	}

	var chosen *ini.Section
	for _, section := range cfg.Sections() {
		if !strings.HasPrefix(section.Name(), "Profile") || !section.HasKey("Path") {
			continue
		}
		if chosen == nil {
			chosen = section
		}
		if section.Key("Default").MustInt(0) == 1 {
			chosen = section
			break
		}
	}
	if chosen == nil {
		return "", ErrNoProfile
	}

	path := chosen.Key("Path").String()
	if chosen.Key("IsRelative").MustBool(true) {
		path = filepath.Join(firefoxDir, path)
	}
	return path, nil
}

// firefox switched expiry from seconds to milliseconds at some point
const millisecondExpiry = 100_000_000_000

// Read loads every cookie from a Firefox cookies.sqlite whose host ends
// with hostSuffix.
func Read(ctx context.Context, cookieFile, hostSuffix string) ([]*http.Cookie, error) {
	_, err := os.Stat(cookieFile)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", cookieFile))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(
		ctx,
		`select host, path, isSecure, expiry, name, value from moz_cookies
		where host like ?`,
		"%"+hostSuffix,
	)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cookieFile, err)
	}
	defer rows.Close()

	var out []*http.Cookie
	for rows.Next() {
		var (
			host, path, name, value string
			secure                  bool
			expiry                  int64
		)
		err := rows.Scan(&host, &path, &secure, &expiry, &name, &value)
		if err != nil {
			return nil, err
		}
		if expiry > millisecondExpiry {
			expiry /= 1000
		}
		out = append(out, &http.Cookie{
			Name:    name,
			Value:   value,
			Domain:  host,
			Path:    path,
			Secure:  secure,
			Expires: time.Unix(expiry, 0),
		})
	}
	return out, rows.Err()
}

// FromProfile reads cookies.sqlite out of the given profile directory.
func FromProfile(ctx context.Context, profileDir, hostSuffix string) ([]*http.Cookie, error) {
	return Read(ctx, filepath.Join(profileDir, "cookies.sqlite"), hostSuffix)
}
