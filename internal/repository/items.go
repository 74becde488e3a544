package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"taskmail/internal/models"
	"taskmail/pkg/logger"
)

// Items is the Postgres-backed item store. All reads expand sender and
// recipient to {name,email} via left joins.
type Items struct {
	db *sql.DB
}

func NewItems(db *sql.DB) *Items {
	return &Items{db: db}
}

const itemSelect = `
	SELECT i.id, i.title, i.description, i.completed, i.starred, i.folder,
	       i.owner_id, i.sender_id, i.recipient_id, i.recipient_email,
	       i.created_at, i.updated_at,
	       s.name, s.email, r.name, r.email
	FROM items i
	LEFT JOIN users s ON s.id = i.sender_id
	LEFT JOIN users r ON r.id = i.recipient_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var it models.Item
	var senderID, recipID, sName, sEmail, rName, rEmail sql.NullString
	err := row.Scan(&it.ID, &it.Title, &it.Description, &it.Completed, &it.Starred,
		&it.Folder, &it.OwnerID, &senderID, &recipID, &it.RecipientEmail,
		&it.CreatedAt, &it.UpdatedAt, &sName, &sEmail, &rName, &rEmail)
	if err != nil {
		return nil, err
	}
	it.SenderID = senderID.String
	it.RecipientID = recipID.String
	if senderID.Valid && sName.Valid {
		it.Sender = &models.UserRef{Name: sName.String, Email: sEmail.String}
	}
	if recipID.Valid && rName.Valid {
		it.Recipient = &models.UserRef{Name: rName.String, Email: rEmail.String}
	}
	return &it, nil
}

func (s *Items) list(ctx context.Context, query string, args ...interface{}) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error(ctx, "Repository item list failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	var items []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ListByFolder returns the owner's items in folder, newest first.
func (s *Items) ListByFolder(ctx context.Context, ownerID string, folder models.Folder) ([]models.Item, error) {
	return s.list(ctx, itemSelect+`
		WHERE i.owner_id = $1 AND i.folder = $2
		ORDER BY i.created_at DESC`, ownerID, string(folder))
}

// ListStarred returns the owner's starred items regardless of folder,
// newest first.
func (s *Items) ListStarred(ctx context.Context, ownerID string) ([]models.Item, error) {
	return s.list(ctx, itemSelect+`
		WHERE i.owner_id = $1 AND i.starred
		ORDER BY i.created_at DESC`, ownerID)
}

// Get returns the item by id with relations expanded, or nil when absent.
func (s *Items) Get(ctx context.Context, id string) (*models.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, itemSelect+` WHERE i.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository item get failed", "error", err, "id", id)
		return nil, err
	}
	return it, nil
}

func nullID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

func insertItem(ctx context.Context, ex interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, it *models.Item) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now
	_, err := ex.ExecContext(ctx,
		`INSERT INTO items (id, title, description, completed, starred, folder,
		                    owner_id, sender_id, recipient_id, recipient_email,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		it.ID, it.Title, it.Description, it.Completed, it.Starred, string(it.Folder),
		it.OwnerID, nullID(it.SenderID), nullID(it.RecipientID), it.RecipientEmail,
		it.CreatedAt, it.UpdatedAt)
	return err
}

// Insert stores a single new item, assigning its id and timestamps.
func (s *Items) Insert(ctx context.Context, it *models.Item) error {
	if err := insertItem(ctx, s.db, it); err != nil {
		logger.Error(ctx, "Repository item insert failed", "error", err)
		return err
	}
	return nil
}

// InsertPair stores the recipient's inbox copy and the sender's sent copy
// of a sent item in one transaction, so a failed second insert rolls back
// the first.
func (s *Items) InsertPair(ctx context.Context, inbox, sent *models.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertItem(ctx, tx, inbox); err != nil {
		tx.Rollback()
		logger.Error(ctx, "Repository inbox copy insert failed", "error", err)
		return err
	}
	if err := insertItem(ctx, tx, sent); err != nil {
		tx.Rollback()
		logger.Error(ctx, "Repository sent copy insert failed", "error", err)
		return err
	}
	return tx.Commit()
}

// Save persists the mutable fields of an existing item.
func (s *Items) Save(ctx context.Context, it *models.Item) error {
	it.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE items SET title = $1, description = $2, completed = $3,
		 starred = $4, folder = $5, updated_at = $6 WHERE id = $7`,
		it.Title, it.Description, it.Completed, it.Starred, string(it.Folder),
		it.UpdatedAt, it.ID)
	if err != nil {
		logger.Error(ctx, "Repository item save failed", "error", err, "id", it.ID)
	}
	return err
}

// Delete removes the item by id.
func (s *Items) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		logger.Error(ctx, "Repository item delete failed", "error", err, "id", id)
	}
	return err
}

// DeleteBulk removes the owner's items whose ids appear in ids. Ids owned
// by other users are excluded by the owner filter, not reported.
func (s *Items) DeleteBulk(ctx context.Context, ownerID string, ids []string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM items WHERE owner_id = $1 AND id = ANY($2)`,
		ownerID, pq.Array(ids))
	if err != nil {
		logger.Error(ctx, "Repository bulk delete failed", "error", err)
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCompleted removes all of the owner's completed items.
func (s *Items) DeleteCompleted(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM items WHERE owner_id = $1 AND completed`, ownerID)
	if err != nil {
		logger.Error(ctx, "Repository delete completed failed", "error", err)
		return 0, err
	}
	return res.RowsAffected()
}

// Counts returns the owner's total and completed item counts.
func (s *Items) Counts(ctx context.Context, ownerID string) (total, completed int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
		 FROM items WHERE owner_id = $1`, ownerID).
		Scan(&total, &completed)
	if err != nil {
		logger.Error(ctx, "Repository counts failed", "error", err)
	}
	return total, completed, err
}
