package postgresutils

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"k8s.io/klog"
)

// ConnectionInfo is everything needed to reach the sync database. Passed in
// explicitly so concurrent jobs never share hidden client state.
type ConnectionInfo struct {
	// DatabaseURL wins over the individual fields when set, likely running
	// on heroku then
	DatabaseURL string
	Host        string
	Username    string
	Password    string
	Database    string
}

func CreatePostgresClient(info ConnectionInfo) (*bun.DB, error) {
	var pgconn *pgdriver.Connector

	if info.DatabaseURL == "" {
		err := ensureDBExistsInPostgres(info)
		if err != nil {
			return nil, err
		}

		sqlHost := info.Host
		// slightly silly logic to add port if missing
		if !strings.Contains(sqlHost, ":") {
			sqlHost += ":5432"
		}

		pgconn = pgdriver.NewConnector(
			pgdriver.WithAddr(sqlHost),
			pgdriver.WithInsecure(true),
			pgdriver.WithUser(info.Username),
			pgdriver.WithPassword(info.Password),
			pgdriver.WithDatabase(info.Database),
		)
	} else {
		// this panics if its invalid
		pgconn = pgdriver.NewConnector(pgdriver.WithDSN(info.DatabaseURL))
	}

	db := sql.OpenDB(pgconn)
	err := db.Ping()

	return bun.NewDB(db, pgdialect.New()), err
}

func ensureDBExistsInPostgres(info ConnectionInfo) error {
	pgconn := pgdriver.NewConnector(
		pgdriver.WithAddr(info.Host),
		pgdriver.WithInsecure(true),
		pgdriver.WithUser(info.Username),
		pgdriver.WithPassword(info.Password),
		pgdriver.WithDatabase("postgres"),
	)

	db := sql.OpenDB(pgconn)
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT datname FROM pg_database where datname = '%s'", info.Database))
	if err != nil {
		return fmt.Errorf("Failed to get list of databases: %s", err)
	}
	defer rows.Close()

	// next meaning there is a row, all we care about is if there is a row
	if !rows.Next() {
		klog.Infof("Creating database %s in postgres database\n", info.Database)
		_, err := db.Exec("CREATE DATABASE " + info.Database)
		if err != nil {
			return fmt.Errorf("failed to create database %s: %w", info.Database, err)
		}
	}

	return nil
}

// TableSetString builds the SET clause of an ON CONFLICT DO UPDATE from a
// model's columns, minus the excluded ones.
func TableSetString(db *bun.DB, model interface{}, exclude ...string) string {
	t := db.Dialect().Tables().Get(reflect.TypeOf(model).Elem())
	if t == nil {
		return ""
	}

	parts := []string{}

	for _, f := range t.FieldMap {
		if isInArray(exclude, f.Name) {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", f.Name, f.Name))
	}

	return strings.Join(parts, ", ")
}

func isInArray(arr []string, s string) bool {
	for _, i := range arr {
		if i == s {
			return true
		}
	}

	return false
}
