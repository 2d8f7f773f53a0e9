// Package archiver keeps a sqlite record of every clip downloaded by the tool.
package archiver

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS archive (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	clip_id TEXT NOT NULL,
	title TEXT NOT NULL,
	broadcaster TEXT NOT NULL,
	path TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

type Entry struct {
	ID          int64     `json:"id"`
	ClipID      string    `json:"clip_id"`
	Title       string    `json:"title"`
	Broadcaster string    `json:"broadcaster"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
}

type Archive struct {
	db *sql.DB
}

func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db}, nil
}

func (a *Archive) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO archive (clip_id, title, broadcaster, path, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ClipID, e.Title, e.Broadcaster, e.Path, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// List returns the archive, newest first.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, clip_id, title, broadcaster, path, created_at FROM archive ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}

	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.ClipID, &e.Title, &e.Broadcaster, &e.Path, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (a *Archive) Close() error { return a.db.Close() }

// Archiver records entries on its own goroutine so downloads never wait on
// the database.
type Archiver struct {
	archive *Archive
	ch      chan Entry
	enabled bool
}

func New(archive *Archive, enabled bool) *Archiver {
	return &Archiver{
		archive: archive,
		ch:      make(chan Entry, 16),
		enabled: enabled,
	}
}

// Publish queues an entry. It never blocks the caller; when nothing drains
// the queue the entry is dropped.
func (a *Archiver) Publish(e Entry) {
	if a == nil || !a.enabled {
		return
	}
	select {
	case a.ch <- e:
	default:
		slog.Warn("archive queue full, dropping entry", slog.String("clip", e.ClipID))
	}
}

// Listen drains published entries until ctx is done.
func (a *Archiver) Listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-a.ch:
			a.record(e)
		}
	}
}

// Flush records whatever is still queued. It is called once Listen returned.
func (a *Archiver) Flush() {
	for {
		select {
		case e := <-a.ch:
			a.record(e)
		default:
			return
		}
	}
}

func (a *Archiver) record(e Entry) {
	slog.Info(
		"archiving completed download",
		slog.String("title", e.Title),
		slog.String("clip", e.ClipID),
	)
	if err := a.archive.Record(context.Background(), e); err != nil {
		slog.Error("failed to archive download", slog.Any("err", err))
	}
}

func ApplyRouter(a *Archive) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			entries, err := a.List(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if err := json.NewEncoder(w).Encode(entries); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		})
	}
}
