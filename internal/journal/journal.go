// Package journal keeps a sqlite history of what was sent to the printer
// and what it reported back.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed schema.sql
var schema string

type Kind string

const (
	KindPrint  Kind = "print"
	KindStatus Kind = "status"
	KindInfo   Kind = "info"
)

type Entry struct {
	Uuid       uuid.UUID
	Kind       Kind
	StartedAt  time.Time
	Bytes      int
	WidthBytes int
	Height     int
	// empty when the operation succeeded
	Error string
	// JSON encoded status report, nil for prints
	Report []byte
}

// A nil *Journal is valid and records nothing.
type Journal struct {
	Db *sql.DB
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open database:\n%w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Couldn't initialise database:\n%w", err)
	}
	return &Journal{Db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.Db.Close()
}

// Stores e, filling in its id and start time if unset.
func (j *Journal) Record(e *Entry) error {
	if j == nil {
		return nil
	}
	if e.Uuid == uuid.Nil {
		e.Uuid = uuid.New()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	var report any
	if e.Report != nil {
		report = string(e.Report)
	}

	_, err := j.Db.Exec(`
    INSERT INTO session_event(uuid, kind, started_at, bytes, width_bytes, height, error, report)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Uuid.String(), string(e.Kind), e.StartedAt.UnixMilli(),
		e.Bytes, e.WidthBytes, e.Height, e.Error, report)
	if err != nil {
		return fmt.Errorf("Failed to insert into journal:\n%w", err)
	}
	return nil
}

// Most recent entries first, at most limit of them.
func (j *Journal) List(limit int) ([]Entry, error) {
	if j == nil {
		return []Entry{}, nil
	}

	rows, err := j.Db.Query(`
    SELECT uuid, kind, started_at, bytes, width_bytes, height, error, report
    FROM session_event
    ORDER BY started_at DESC, id DESC
    LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("Query execution failed:\n%w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			uuidString string
			kind       string
			startedAt  int64
			report     sql.NullString
		)
		if err := rows.Scan(&uuidString, &kind, &startedAt, &e.Bytes, &e.WidthBytes, &e.Height, &e.Error, &report); err != nil {
			return nil, fmt.Errorf("Row scanning failed:\n%w", err)
		}
		if e.Uuid, err = uuid.Parse(uuidString); err != nil {
			return nil, fmt.Errorf("Bad id in journal:\n%w", err)
		}
		e.Kind = Kind(kind)
		e.StartedAt = time.UnixMilli(startedAt)
		if report.Valid {
			e.Report = []byte(report.String)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Error iterating rows:\n%w", err)
	}

	return entries, nil
}
