package main

import (
	"fmt"
	"log/slog"
	"os"

	devenv "readstats/dev/env"
	"readstats/services/readstats/db"
)

const baselineDB = "<dev_state>/readstats.db"

func CreateBaselineDB() error {
	path, err := devenv.ResolvePath(baselineDB)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	database, err := db.Open(path)
	if err != nil {
		return err
	}
	return database.Close()
}

// WriteLocalConfig points readstats.local.json5 at the dev database and
// dumps fetched pages into the dev state, unless the file exists.
func WriteLocalConfig() error {
	const local = "readstats.local.json5"
	_, err := os.Stat(local)
	if err == nil {
		fmt.Println("local config already present at", local)
		return nil
	}

	dbPath, err := devenv.ResolvePath(baselineDB)
	if err != nil {
		return err
	}
	dumpDir, err := devenv.ResolvePath("<dev_state>/pages")
	if err != nil {
		return err
	}

	contents := fmt.Sprintf(`{
  database: %q,
  fetch: {
    dump_dir: %q,
  },
}
`, dbPath, dumpDir)
	return os.WriteFile(local, []byte(contents), 0644)
}

func PrintConfigLocations() {
	slog.Info("cookies are read from the default firefox profile, set cookies.file in readstats.local.json5 to use another cookies.sqlite.")
}
