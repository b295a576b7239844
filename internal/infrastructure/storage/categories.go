package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// CreateCategory inserts a category
func (s *Storage) CreateCategory(ctx context.Context, category *recurring.Category) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO categories (id, user_id, name) VALUES (?, ?, ?)`),
		category.ID, category.UserID, category.Name,
	)
	return recurring.StorageFailure("create category", err)
}

// GetCategory retrieves a category owned by userID
func (s *Storage) GetCategory(ctx context.Context, userID, id string) (*recurring.Category, error) {
	var c recurring.Category
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, user_id, name FROM categories WHERE id = ? AND user_id = ?`),
		id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recurring.NotFound("category")
	}
	if err != nil {
		return nil, recurring.StorageFailure("get category", err)
	}
	return &c, nil
}
