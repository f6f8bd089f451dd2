package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"readstats/lib/sqliteutil"
	"readstats/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// schema applied to the database, required
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService installs test telemetry and opens a fresh database with
// the given schema. The database is closed by the returned cleanup.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))

	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}
	db, err := sqliteutil.OpenDB(params.DbSchema, dbpath)
	if err != nil {
		cleanupTelemetry()
		t.Fatal(err)
	}

	return ServiceResult{DB: db}, func() {
		db.Close()
		cleanupTelemetry()
	}
}
