// Package travel implements the airline support tools over a SQLite database.
package travel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the travel database and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS flights (
	flight_id INTEGER PRIMARY KEY,
	flight_no TEXT NOT NULL,
	departure_airport TEXT NOT NULL,
	arrival_airport TEXT NOT NULL,
	scheduled_departure TEXT NOT NULL,
	scheduled_arrival TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Scheduled'
);
CREATE TABLE IF NOT EXISTS tickets (
	ticket_no TEXT PRIMARY KEY,
	book_ref TEXT NOT NULL,
	passenger_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ticket_flights (
	ticket_no TEXT NOT NULL,
	flight_id INTEGER NOT NULL,
	fare_conditions TEXT NOT NULL,
	amount REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS boarding_passes (
	ticket_no TEXT NOT NULL,
	flight_id INTEGER NOT NULL,
	seat_no TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS hotels (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	location TEXT NOT NULL,
	price_tier TEXT NOT NULL,
	checkin_date TEXT NOT NULL DEFAULT '',
	checkout_date TEXT NOT NULL DEFAULT '',
	booked INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS car_rentals (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	location TEXT NOT NULL,
	price_tier TEXT NOT NULL,
	start_date TEXT NOT NULL DEFAULT '',
	end_date TEXT NOT NULL DEFAULT '',
	booked INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS trip_recommendations (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	location TEXT NOT NULL,
	keywords TEXT NOT NULL DEFAULT '',
	details TEXT NOT NULL DEFAULT '',
	booked INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS policies (
	id INTEGER PRIMARY KEY,
	section TEXT NOT NULL,
	content TEXT NOT NULL
);
`

// Migrate creates the travel tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}
