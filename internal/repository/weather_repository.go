// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/whlops/port-weather-bot/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// StoredForecast is the latest persisted forecast for a port.
type StoredForecast struct {
	Content    string
	IssuedTime string
	PortName   string
}

// WeatherRepository defines the interface for forecast persistence.
type WeatherRepository interface {
	SaveForecast(port entities.Port, issuedTime, content string) error
	LatestForecast(portCode string) (*StoredForecast, error)
	LatestIssuedTime(portCode string) (string, error)
	Close() error
}

// SQLiteWeatherRepository implements WeatherRepository using SQLite.
type SQLiteWeatherRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteWeatherRepository creates and initializes the forecast store.
// An empty path selects the default data/port_weather.db.
func NewSQLiteWeatherRepository(dbPath string) (*SQLiteWeatherRepository, error) {
	if dbPath == "" {
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "port_weather.db")
	}

	log.Printf("Opening database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// The (port_code, issued_time) uniqueness constraint is what makes
	// re-fetching an unchanged forecast idempotent.
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS weather_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		port_name TEXT NOT NULL,
		wni_port_code TEXT NOT NULL,
		port_code TEXT NOT NULL,
		country TEXT NOT NULL,
		station_id TEXT NOT NULL,
		issued_time TEXT NOT NULL,
		content TEXT NOT NULL,
		download_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(port_code, issued_time)
	);
	CREATE INDEX IF NOT EXISTS idx_port_code ON weather_data(port_code);
	CREATE INDEX IF NOT EXISTS idx_issued_time ON weather_data(issued_time);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteWeatherRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteWeatherRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveForecast stores one forecast keyed by (port_code, issued_time) with
// replace-on-conflict semantics.
func (r *SQLiteWeatherRepository) SaveForecast(port entities.Port, issuedTime, content string) error {
	_, err := r.db.Exec(`
		INSERT INTO weather_data
		(port_name, wni_port_code, port_code, country, station_id, issued_time, content, download_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(port_code, issued_time) DO UPDATE SET
		content=excluded.content,
		download_time=CURRENT_TIMESTAMP`,
		port.Name, port.WNICode, port.Code, port.Country, port.StationID, issuedTime, content)
	if err != nil {
		return fmt.Errorf("failed to save forecast for %s: %v", port.Code, err)
	}
	return nil
}

// LatestForecast returns the newest stored forecast for a port, or nil when
// the port has none.
func (r *SQLiteWeatherRepository) LatestForecast(portCode string) (*StoredForecast, error) {
	var f StoredForecast
	err := r.db.QueryRow(`
		SELECT content, issued_time, port_name FROM weather_data
		WHERE port_code = ?
		ORDER BY issued_time DESC
		LIMIT 1`, portCode).Scan(&f.Content, &f.IssuedTime, &f.PortName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest forecast for %s: %v", portCode, err)
	}
	return &f, nil
}

// LatestIssuedTime returns the newest stored issue-time token for a port, or
// "" when the port has none. Used for idempotent skip detection on re-fetch.
func (r *SQLiteWeatherRepository) LatestIssuedTime(portCode string) (string, error) {
	var issued string
	err := r.db.QueryRow(
		`SELECT issued_time FROM weather_data WHERE port_code = ? ORDER BY issued_time DESC LIMIT 1`,
		portCode).Scan(&issued)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest issue time for %s: %v", portCode, err)
	}
	return issued, nil
}
