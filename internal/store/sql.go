package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"chatfeed/internal/models"
	"chatfeed/internal/storage"
)

var _ Store = (*SQLStore)(nil)

const selectMessages = `SELECT id, content, content_type, sent, user_name, user_avatar_url FROM messages`

// SQLStore keeps messages in a relational table through database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
	log    *zap.Logger
}

// NewSQLStore wraps an opened and migrated database.
func NewSQLStore(db *sql.DB, dbType string) (*SQLStore, error) {
	driver, err := storage.Driver(dbType)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, driver: driver, log: zap.L().Named("store.sql")}, nil
}

func (s *SQLStore) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	msg, err := prepare(msg)
	if err != nil {
		return models.Message{}, err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO messages (id, content, content_type, sent, user_name, user_avatar_url) VALUES (?, ?, ?, ?, ?, ?)`),
		msg.ID, msg.Content, string(msg.ContentType), msg.Sent.UnixMilli(), msg.UserName, msg.UserAvatarURL,
	)
	if err != nil {
		return models.Message{}, unavailable("insert message", err)
	}
	s.log.Debug("message stored", zap.String("id", msg.ID))
	return msg, nil
}

func (s *SQLStore) ListAll(ctx context.Context) ([]models.Message, error) {
	return s.query(ctx, selectMessages)
}

func (s *SQLStore) ListAfter(ctx context.Context, cursorID string) ([]models.Message, error) {
	if cursorID == "" {
		return s.ListAll(ctx)
	}
	var sent int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT sent FROM messages WHERE id = ?`), cursorID).Scan(&sent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log.Debug("unknown cursor, listing all", zap.String("cursor", cursorID))
			return s.ListAll(ctx)
		}
		return nil, unavailable("lookup cursor", err)
	}
	return s.query(ctx, s.rebind(selectMessages+` WHERE sent > ?`), sent)
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return unavailable("clear messages", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping database", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list messages", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var (
			m    models.Message
			ct   string
			sent int64
		)
		if err := rows.Scan(&m.ID, &m.Content, &ct, &sent, &m.UserName, &m.UserAvatarURL); err != nil {
			return nil, unavailable("scan message", err)
		}
		m.ContentType = models.ContentType(ct)
		m.Sent = time.UnixMilli(sent).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list messages", err)
	}
	return messages, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
