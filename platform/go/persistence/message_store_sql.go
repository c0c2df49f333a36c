package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLMessageStore provides database/sql access to the messages table for the
// sqlite3 and lib/pq drivers.
type SQLMessageStore struct {
	db    *SQLDB
	table string
}

// NewSQLMessageStore creates a store; assumes the messages table already exists.
func NewSQLMessageStore(ctx context.Context, db *SQLDB) (*SQLMessageStore, error) {
	if db == nil || db.DB == nil {
		return nil, errors.New("sql db is required")
	}
	return &SQLMessageStore{db: db, table: MessagesTable}, nil
}

func (s *SQLMessageStore) HasColumn(ctx context.Context, column string) (bool, error) {
	return s.db.HasColumn(ctx, s.table, column)
}

func (s *SQLMessageStore) AddColumn(ctx context.Context, column, definition string) error {
	return s.db.AddColumn(ctx, s.table, column, definition)
}

func (s *SQLMessageStore) CreateIndex(ctx context.Context, name, column string) error {
	return s.db.CreateIndex(ctx, name, s.table, column)
}

// ScanSubjects streams every (message_id, subject) pair in ascending id order.
func (s *SQLMessageStore) ScanSubjects(ctx context.Context, fn func(MessageSubject) error) error {
	rows, err := s.db.DB.QueryContext(ctx, fmt.Sprintf(messageScanQueryTemplate, s.table))
	if err != nil {
		return fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			subject sql.NullString
		)
		if err := rows.Scan(&id, &subject); err != nil {
			return fmt.Errorf("scan subject: %w", err)
		}

		row := MessageSubject{MessageID: id}
		if subject.Valid {
			row.Subject = &subject.String
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

// UpdateURLSubjects applies updates in one transaction through a prepared
// statement, committing once after the last chunk of batchSize rows.
func (s *SQLMessageStore) UpdateURLSubjects(ctx context.Context, updates []URLSubjectUpdate, batchSize int) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultUpdateBatchSize
	}

	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	query := s.db.Dialect.Rebind(fmt.Sprintf("UPDATE %s SET %s = ? WHERE message_id = ?", s.table, URLSubjectColumn))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare url subject update: %w", err)
	}
	defer stmt.Close()

	batches := 0
	for start := 0; start < len(updates); start += batchSize {
		end := min(start+batchSize, len(updates))
		for _, u := range updates[start:end] {
			if _, err := stmt.ExecContext(ctx, u.URLSubject, u.MessageID); err != nil {
				return 0, fmt.Errorf("execute update batch %d: %w", batches+1, err)
			}
		}
		batches++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit url subjects: %w", err)
	}
	return batches, nil
}

// DuplicateURLSubjects lists URL subjects shared by more than one row.
func (s *SQLMessageStore) DuplicateURLSubjects(ctx context.Context) ([]DuplicateURLSubject, error) {
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM %[2]s
        WHERE %[1]s IS NOT NULL
        GROUP BY %[1]s HAVING COUNT(*) > 1
        ORDER BY %[1]s`, URLSubjectColumn, s.table)

	rows, err := s.db.DB.QueryContext(ctx, query)
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

func (s *SQLMessageStore) CountMissingURLSubjects(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", s.table, URLSubjectColumn)

	var count int
	if err := s.db.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count missing url subjects: %w", err)
	}
	return count, nil
}

func (s *SQLMessageStore) InsertMessage(ctx context.Context, id int64, subject *string) error {
	query := s.db.Dialect.Rebind(fmt.Sprintf("INSERT INTO %s (message_id, subject) VALUES (?, ?)", s.table))
	if _, err := s.db.DB.ExecContext(ctx, query, id, subject); err != nil {
		return fmt.Errorf("insert message %d: %w", id, err)
	}
	return nil
}

func (s *SQLMessageStore) URLSubject(ctx context.Context, id int64) (*string, error) {
	query := s.db.Dialect.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE message_id = ?", URLSubjectColumn, s.table))

	var out sql.NullString
	if err := s.db.DB.QueryRowContext(ctx, query, id).Scan(&out); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get url subject %d: %w", id, err)
	}
	if !out.Valid {
		return nil, nil
	}
	return &out.String, nil
}
