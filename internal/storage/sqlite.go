package storage

import (
	"context"
	"database/sql"
	"errors"
	"flairhq/internal/models"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS flairs (
	name TEXT PRIMARY KEY,
	subject TEXT NOT NULL,
	display TEXT NOT NULL DEFAULT '',
	requirements TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user TEXT NOT NULL,
	type TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	approved INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_refs_user ON refs(user);

CREATE TABLE IF NOT EXISTS users (
	name TEXT PRIMARY KEY,
	is_mod INTEGER NOT NULL DEFAULT 0,
	banned INTEGER NOT NULL DEFAULT 0,
	logged_codes TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_users_banned ON users(banned);

CREATE TABLE IF NOT EXISTS user_flairs (
	user TEXT NOT NULL,
	subject TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	css_class TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user, subject)
);

CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	user TEXT NOT NULL,
	flair TEXT NOT NULL,
	subject TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(user, flair, subject)
);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	user TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type_user ON events(type, user, created_at);
`

// SQLiteStore implements every store interface on a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; concurrent fan-out calls queue on the pool
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// ---- flairs ----

func (s *SQLiteStore) GetFlair(ctx context.Context, name string) (*models.FlairDefinition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, subject, display, requirements FROM flairs WHERE name = ?`, name)
	def, err := scanFlair(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flair %s: %w", name, err)
	}
	return def, nil
}

func (s *SQLiteStore) ListFlairs(ctx context.Context) ([]models.FlairDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, subject, display, requirements FROM flairs ORDER BY subject, name`)
	if err != nil {
		return nil, fmt.Errorf("list flairs: %w", err)
	}
	defer rows.Close()

	var defs []models.FlairDefinition
	for rows.Next() {
		def, err := scanFlair(rows)
		if err != nil {
			return nil, fmt.Errorf("list flairs: %w", err)
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

// PutFlairs upserts the given definitions in one transaction.
func (s *SQLiteStore) PutFlairs(ctx context.Context, defs []models.FlairDefinition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put flairs: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, def := range defs {
		req, err := json.Marshal(def.Requirements)
		if err != nil {
			return fmt.Errorf("encode requirements of %s: %w", def.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO flairs (name, subject, display, requirements) VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET subject = excluded.subject, display = excluded.display, requirements = excluded.requirements`,
			def.Name, def.Subject, def.Display, string(req))
		if err != nil {
			return fmt.Errorf("put flair %s: %w", def.Name, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlair(row scanner) (*models.FlairDefinition, error) {
	var def models.FlairDefinition
	var req string
	if err := row.Scan(&def.Name, &def.Subject, &def.Display, &req); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(req), &def.Requirements); err != nil {
		return nil, fmt.Errorf("decode requirements of %s: %w", def.Name, err)
	}
	return &def, nil
}

// ---- references ----

func (s *SQLiteStore) ListReferences(ctx context.Context, user string) ([]models.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user, type, url, approved, created_at FROM refs WHERE user = ? ORDER BY id`, user)
	if err != nil {
		return nil, fmt.Errorf("list references of %s: %w", user, err)
	}
	defer rows.Close()

	var refs []models.Reference
	for rows.Next() {
		var ref models.Reference
		var created int64
		if err := rows.Scan(&ref.ID, &ref.User, &ref.Type, &ref.URL, &ref.Approved, &created); err != nil {
			return nil, fmt.Errorf("list references of %s: %w", user, err)
		}
		ref.CreatedAt = fromNanos(created)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) AddReference(ctx context.Context, ref *models.Reference) error {
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = s.now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO refs (user, type, url, approved, created_at) VALUES (?, ?, ?, ?, ?)`,
		ref.User, string(ref.Type), ref.URL, ref.Approved, ref.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("add reference: %w", err)
	}
	ref.ID, err = res.LastInsertId()
	return err
}

// ---- users ----

func (s *SQLiteStore) GetUser(ctx context.Context, name string) (*models.User, error) {
	user := models.User{Name: name}
	var logged string
	err := s.db.QueryRowContext(ctx, `SELECT is_mod, banned, logged_codes FROM users WHERE name = ?`, name).
		Scan(&user.IsMod, &user.Banned, &logged)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(logged), &user.LoggedFriendCodes); err != nil {
		return nil, fmt.Errorf("decode friend codes of %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT subject, text, css_class FROM user_flairs WHERE user = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("get flair of %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var subject string
		var st models.FlairState
		if err := rows.Scan(&subject, &st.Text, &st.CSSClass); err != nil {
			return nil, fmt.Errorf("get flair of %s: %w", name, err)
		}
		user.SetFlair(subject, st)
	}
	return &user, rows.Err()
}

// SaveUser writes the whole user record, replacing stored flair for the subjects it carries.
func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) error {
	logged, err := encodeCodes(user.LoggedFriendCodes)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save user %s: %w", user.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (name, is_mod, banned, logged_codes) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET is_mod = excluded.is_mod, banned = excluded.banned, logged_codes = excluded.logged_codes`,
		user.Name, user.IsMod, user.Banned, logged)
	if err != nil {
		return fmt.Errorf("save user %s: %w", user.Name, err)
	}
	for subject, st := range user.Flair {
		if err := upsertFlairState(ctx, tx, user.Name, subject, st); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SetFlairState(ctx context.Context, name, subject string, state models.FlairState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set flair of %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO users (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("set flair of %s: %w", name, err)
	}
	if err := upsertFlairState(ctx, tx, name, subject, state); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertFlairState(ctx context.Context, tx *sql.Tx, name, subject string, st models.FlairState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_flairs (user, subject, text, css_class) VALUES (?, ?, ?, ?)
		ON CONFLICT(user, subject) DO UPDATE SET text = excluded.text, css_class = excluded.css_class`,
		name, subject, st.Text, st.CSSClass)
	if err != nil {
		return fmt.Errorf("set %s flair of %s: %w", subject, name, err)
	}
	return nil
}

func (s *SQLiteStore) SetLoggedFriendCodes(ctx context.Context, name string, codes []string) error {
	logged, err := encodeCodes(codes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (name, logged_codes) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET logged_codes = excluded.logged_codes`,
		name, logged)
	if err != nil {
		return fmt.Errorf("set friend codes of %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) ListBannedUsers(ctx context.Context) ([]models.BannedUser, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, logged_codes FROM users WHERE banned = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list banned users: %w", err)
	}
	defer rows.Close()

	var banned []models.BannedUser
	for rows.Next() {
		var b models.BannedUser
		var logged string
		if err := rows.Scan(&b.Name, &logged); err != nil {
			return nil, fmt.Errorf("list banned users: %w", err)
		}
		if err := json.Unmarshal([]byte(logged), &b.FriendCodes); err != nil {
			return nil, fmt.Errorf("decode friend codes of %s: %w", b.Name, err)
		}
		banned = append(banned, b)
	}
	return banned, rows.Err()
}

func encodeCodes(codes []string) (string, error) {
	if codes == nil {
		codes = []string{}
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return "", fmt.Errorf("encode friend codes: %w", err)
	}
	return string(data), nil
}

// ---- applications ----

func (s *SQLiteStore) CreateApplication(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (id, user, flair, subject, created_at) VALUES (?, ?, ?, ?, ?)`,
		app.ID, app.User, app.Flair, app.Subject, app.CreatedAt.UnixNano())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return s.findApplication(ctx, `WHERE id = ?`, id)
}

func (s *SQLiteStore) FindApplication(ctx context.Context, user, flair, subject string) (*models.Application, error) {
	return s.findApplication(ctx, `WHERE user = ? AND flair = ? AND subject = ?`, user, flair, subject)
}

func (s *SQLiteStore) findApplication(ctx context.Context, where string, args ...any) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user, flair, subject, created_at FROM applications `+where, args...)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *SQLiteStore) ListApplications(ctx context.Context) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user, flair, subject, created_at FROM applications ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func (s *SQLiteStore) DeleteApplication(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete application %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete application %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanApplication(row scanner) (*models.Application, error) {
	var app models.Application
	var created int64
	if err := row.Scan(&app.ID, &app.User, &app.Flair, &app.Subject, &created); err != nil {
		return nil, err
	}
	app.CreatedAt = fromNanos(created)
	return &app, nil
}

// ---- events ----

func (s *SQLiteStore) CreateEvents(ctx context.Context, events ...models.ModerationEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create events: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (id, type, user, content, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("create events: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = s.now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, ev.ID, string(ev.Type), ev.User, ev.Content, ev.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("create event %s: %w", ev.Type, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LatestEvent(ctx context.Context, eventType models.EventType, user string) (*models.ModerationEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, user, content, created_at FROM events
		WHERE type = ? AND user = ? ORDER BY created_at DESC LIMIT 1`, string(eventType), user)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s event of %s: %w", eventType, user, err)
	}
	return ev, nil
}

func (s *SQLiteStore) FindEventsByContent(ctx context.Context, substr string) ([]models.ModerationEvent, error) {
	return s.listEvents(ctx, `WHERE instr(content, ?) > 0`, substr)
}

func (s *SQLiteStore) ListEvents(ctx context.Context) ([]models.ModerationEvent, error) {
	return s.listEvents(ctx, "")
}

func (s *SQLiteStore) listEvents(ctx context.Context, where string, args ...any) ([]models.ModerationEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, user, content, created_at FROM events `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.ModerationEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func scanEvent(row scanner) (*models.ModerationEvent, error) {
	var ev models.ModerationEvent
	var created int64
	if err := row.Scan(&ev.ID, &ev.Type, &ev.User, &ev.Content, &created); err != nil {
		return nil, err
	}
	ev.CreatedAt = fromNanos(created)
	return &ev, nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
