package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/use-agent/scrapechat/models"
)

// ErrNotFound is returned when a session does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
    session_id  UUID PRIMARY KEY,
    user_id     TEXT NOT NULL,
    title       TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_history (
    id               BIGSERIAL PRIMARY KEY,
    chat_session_id  UUID NOT NULL,
    user_id          TEXT NOT NULL,
    sender           TEXT NOT NULL,
    message          TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pending_scrapes (
    chat_session_id  UUID PRIMARY KEY,
    user_id          TEXT NOT NULL,
    message          TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history (chat_session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_chat_sessions_user ON chat_sessions (user_id, created_at DESC);
`

// Postgres persists chat sessions, history and suspended scrape requests.
type Postgres struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, dbURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// InitSchema creates the tables if they do not exist.
func (p *Postgres) InitSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks store liveness.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// CreateSession creates a new session for the user. The title is derived
// from the first message when one is given.
func (p *Postgres) CreateSession(ctx context.Context, userID, firstMessage string) (*models.Session, error) {
	session := &models.Session{
		ID:     uuid.New(),
		UserID: userID,
		Title:  sessionTitle(firstMessage),
	}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO chat_sessions (session_id, user_id, title) VALUES ($1, $2, $3) RETURNING created_at`,
		session.ID, session.UserID, session.Title,
	).Scan(&session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create session: %w", err)
	}
	return session, nil
}

// Sessions lists the user's sessions, newest first.
func (p *Postgres) Sessions(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT session_id, user_id, COALESCE(title, 'New Chat'), created_at
		 FROM chat_sessions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RenameSession updates a session title. Returns ErrNotFound when the
// session does not exist for the user.
func (p *Postgres) RenameSession(ctx context.Context, sessionID uuid.UUID, userID, title string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE chat_sessions SET title = $1 WHERE session_id = $2 AND user_id = $3`,
		title, sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("store: rename session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session along with its history and any suspended
// scrape request.
func (p *Postgres) DeleteSession(ctx context.Context, sessionID uuid.UUID, userID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM chat_sessions WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chat_history WHERE chat_session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("store: delete history: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM pending_scrapes WHERE chat_session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("store: delete pending: %w", err)
	}
	return tx.Commit(ctx)
}

// History returns a session's messages in chronological order.
func (p *Postgres) History(ctx context.Context, sessionID uuid.UUID, userID string) ([]models.ChatMessage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT chat_session_id, user_id, sender, message, created_at
		 FROM chat_history WHERE chat_session_id = $1 AND user_id = $2
		 ORDER BY created_at ASC, id ASC`,
		sessionID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.SessionID, &m.UserID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage writes one history row.
func (p *Postgres) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO chat_history (chat_session_id, user_id, sender, message) VALUES ($1, $2, $3, $4)`,
		msg.SessionID, msg.UserID, msg.Sender, msg.Text,
	)
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return nil
}

// PendingRequest returns the session's suspended scrape request, if any.
func (p *Postgres) PendingRequest(ctx context.Context, sessionID uuid.UUID) (string, bool, error) {
	var message string
	err := p.pool.QueryRow(ctx,
		`SELECT message FROM pending_scrapes WHERE chat_session_id = $1`,
		sessionID,
	).Scan(&message)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: pending request: %w", err)
	}
	return message, true, nil
}

// SetPendingRequest parks a scrape request awaiting a format selection. A
// session holds at most one; a newer request replaces the older.
func (p *Postgres) SetPendingRequest(ctx context.Context, sessionID uuid.UUID, userID, message string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO pending_scrapes (chat_session_id, user_id, message) VALUES ($1, $2, $3)
		 ON CONFLICT (chat_session_id) DO UPDATE SET user_id = $2, message = $3, created_at = now()`,
		sessionID, userID, message,
	)
	if err != nil {
		return fmt.Errorf("store: set pending request: %w", err)
	}
	return nil
}

// ClearPendingRequest removes the session's suspended scrape request.
func (p *Postgres) ClearPendingRequest(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := p.pool.Exec(ctx,
		`DELETE FROM pending_scrapes WHERE chat_session_id = $1`, sessionID,
	); err != nil {
		return fmt.Errorf("store: clear pending request: %w", err)
	}
	return nil
}

// sessionTitle derives a short session title from its first message: the
// first four words, truncated when still too long.
func sessionTitle(firstMessage string) string {
	words := strings.Fields(firstMessage)
	if len(words) == 0 {
		return "New Chat"
	}
	if len(words) > 4 {
		words = words[:4]
	}
	title := strings.Join(words, " ")
	if len(title) > 30 {
		title = title[:27] + "..."
	}
	return title
}
