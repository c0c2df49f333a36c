package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message-board table layout shared by every store implementation.
const (
	MessagesTable            = "mb_message"
	URLSubjectColumn         = "url_subject"
	URLSubjectColumnType     = "VARCHAR(255)"
	URLSubjectIndex          = "ix_mb_message_url_subject"
	DefaultUpdateBatchSize   = 1000
	messageScanQueryTemplate = "SELECT message_id, subject FROM %s ORDER BY message_id"
)

// MessageSubject is one row read during the URL subject scan.
type MessageSubject struct {
	MessageID int64
	Subject   *string
}

// URLSubjectUpdate is one queued write of the backfill.
type URLSubjectUpdate struct {
	MessageID  int64
	URLSubject string
}

// DuplicateURLSubject reports a URL subject carried by more than one row.
type DuplicateURLSubject struct {
	URLSubject string
	Count      int
}

// MessageStore provides pgx access to the message-board messages table.
type MessageStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewMessageStore creates a store; assumes the messages table already exists.
func NewMessageStore(ctx context.Context, pool *pgxpool.Pool) (*MessageStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &MessageStore{pool: pool, table: MessagesTable}, nil
}

// HasColumn reports whether the messages table carries column.
func (s *MessageStore) HasColumn(ctx context.Context, column string) (bool, error) {
	return pgHasColumn(ctx, s.pool, s.table, column)
}

// AddColumn appends column with definition to the messages table.
func (s *MessageStore) AddColumn(ctx context.Context, column, definition string) error {
	return pgAddColumn(ctx, s.pool, s.table, column, definition)
}

// CreateIndex creates a non-unique index on column unless it already exists.
func (s *MessageStore) CreateIndex(ctx context.Context, name, column string) error {
	return pgCreateIndex(ctx, s.pool, name, s.table, column)
}

// ScanSubjects streams every (message_id, subject) pair in ascending id order.
// The cursor is closed before ScanSubjects returns.
func (s *MessageStore) ScanSubjects(ctx context.Context, fn func(MessageSubject) error) error {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(messageScanQueryTemplate, pgx.Identifier{s.table}.Sanitize()))
	if err != nil {
		return fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row MessageSubject
		if err := rows.Scan(&row.MessageID, &row.Subject); err != nil {
			return fmt.Errorf("scan subject: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate subjects: %w", err)
	}
	return nil
}

// UpdateURLSubjects applies updates inside a single transaction, sending them
// as pgx batches of at most batchSize statements. It returns the number of
// batches sent. A failure rolls back every batch.
func (s *MessageStore) UpdateURLSubjects(ctx context.Context, updates []URLSubjectUpdate, batchSize int) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultUpdateBatchSize
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE message_id = $2",
		pgx.Identifier{s.table}.Sanitize(), pgx.Identifier{URLSubjectColumn}.Sanitize())

	batches := 0
	for start := 0; start < len(updates); start += batchSize {
		end := min(start+batchSize, len(updates))

		batch := &pgx.Batch{}
		for _, u := range updates[start:end] {
			batch.Queue(query, u.URLSubject, u.MessageID)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("execute update batch %d: %w", batches+1, err)
		}
		batches++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit url subjects: %w", err)
	}
	return batches, nil
}

// DuplicateURLSubjects lists URL subjects shared by more than one row.
func (s *MessageStore) DuplicateURLSubjects(ctx context.Context) ([]DuplicateURLSubject, error) {
	col := pgx.Identifier{URLSubjectColumn}.Sanitize()
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM %[2]s
        WHERE %[1]s IS NOT NULL
        GROUP BY %[1]s HAVING COUNT(*) > 1
        ORDER BY %[1]s`, col, pgx.Identifier{s.table}.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query duplicate url subjects: %w", err)
	}
	defer rows.Close()

	var out []DuplicateURLSubject
	for rows.Next() {
		var d DuplicateURLSubject
		if err := rows.Scan(&d.URLSubject, &d.Count); err != nil {
			return nil, fmt.Errorf("scan duplicate url subject: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicate url subjects: %w", err)
	}
	return out, nil
}

// CountMissingURLSubjects counts rows whose URL subject is still NULL.
func (s *MessageStore) CountMissingURLSubjects(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL",
		pgx.Identifier{s.table}.Sanitize(), pgx.Identifier{URLSubjectColumn}.Sanitize())

	var count int
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count missing url subjects: %w", err)
	}
	return count, nil
}

// InsertMessage seeds a message row; used by bootstrap tooling and tests.
func (s *MessageStore) InsertMessage(ctx context.Context, id int64, subject *string) error {
	query := fmt.Sprintf("INSERT INTO %s (message_id, subject) VALUES ($1, $2)", pgx.Identifier{s.table}.Sanitize())
	if _, err := s.pool.Exec(ctx, query, id, subject); err != nil {
		return fmt.Errorf("insert message %d: %w", id, err)
	}
	return nil
}

// URLSubject returns the stored URL subject of a single message.
func (s *MessageStore) URLSubject(ctx context.Context, id int64) (*string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE message_id = $1",
		pgx.Identifier{URLSubjectColumn}.Sanitize(), pgx.Identifier{s.table}.Sanitize())

	var out *string
	if err := s.pool.QueryRow(ctx, query, id).Scan(&out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get url subject %d: %w", id, err)
	}
	return out, nil
}
