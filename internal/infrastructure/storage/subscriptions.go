package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// linked_count is computed on read and scoped to the owner
const subscriptionSelect = `SELECT r.id, r.user_id, r.name, r.merchant, r.amount, r.currency,
	r.category_id, r.importance, r.frequency, r.is_active, r.created_at, r.updated_at,
	(SELECT COUNT(*) FROM transactions t
	 WHERE t.recurring_transaction_id = r.id AND t.user_id = r.user_id) AS linked_count
	FROM recurring_transactions r`

func scanSubscription(row rowScanner) (*recurring.Subscription, error) {
	var (
		sub                recurring.Subscription
		merchant, category sql.NullString
		frequency          string
	)
	if err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Name, &merchant, &sub.Amount, &sub.Currency,
		&category, &sub.Importance, &frequency, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt,
		&sub.LinkedCount,
	); err != nil {
		return nil, err
	}
	sub.Merchant = stringPtr(merchant)
	sub.CategoryID = stringPtr(category)
	sub.Frequency = recurring.Frequency(frequency)
	sub.CreatedAt = utc(sub.CreatedAt)
	sub.UpdatedAt = utc(sub.UpdatedAt)
	return &sub, nil
}

// CreateSubscriptionWithLinks inserts the subscription and links transactions atomically
func (s *Storage) CreateSubscriptionWithLinks(ctx context.Context, sub *recurring.Subscription, transactionIDs []string) (int, error) {
	now := utc(time.Now())
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = sub.CreatedAt
	}

	linked := 0
	err := s.withTx(ctx, func(dbtx *sql.Tx) error {
		_, err := dbtx.ExecContext(ctx, s.rebind(`
			INSERT INTO recurring_transactions
			(id, user_id, name, merchant, amount, currency, category_id,
			 importance, frequency, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			sub.ID, sub.UserID, sub.Name, nullString(sub.Merchant), sub.Amount, sub.Currency,
			nullString(sub.CategoryID), sub.Importance, string(sub.Frequency), sub.IsActive,
			utc(sub.CreatedAt), utc(sub.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return recurring.DuplicateName(sub.Name)
		}
		if err != nil {
			return err
		}

		if len(transactionIDs) == 0 {
			return nil
		}

		args := []any{sub.ID, sub.UserID}
		for _, id := range transactionIDs {
			args = append(args, id)
		}
		res, err := dbtx.ExecContext(ctx, s.rebind(`
			UPDATE transactions SET recurring_transaction_id = ?
			WHERE user_id = ? AND id IN (`+placeholders(len(transactionIDs))+`)`),
			args...,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		linked = int(n)
		return nil
	})
	if err != nil {
		return 0, recurring.StorageFailure("create subscription", err)
	}

	sub.LinkedCount = linked
	return linked, nil
}

// GetSubscription retrieves a subscription owned by userID
func (s *Storage) GetSubscription(ctx context.Context, userID, id string) (*recurring.Subscription, error) {
	query := s.rebind(subscriptionSelect + ` WHERE r.id = ? AND r.user_id = ?`)

	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recurring.NotFound("subscription")
	}
	if err != nil {
		return nil, recurring.StorageFailure("get subscription", err)
	}
	return sub, nil
}

// ListSubscriptions returns the user's subscriptions ordered by name
func (s *Storage) ListSubscriptions(ctx context.Context, userID string, activeOnly bool) ([]*recurring.Subscription, error) {
	query := subscriptionSelect + ` WHERE r.user_id = ?`
	args := []any{userID}
	if activeOnly {
		query += ` AND r.is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY r.name, r.id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, recurring.StorageFailure("list subscriptions", err)
	}
	defer rows.Close()

	var result []*recurring.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, recurring.StorageFailure("scan subscription", err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, recurring.StorageFailure("list subscriptions", err)
	}
	return result, nil
}

// SubscriptionNameExists checks for a case-sensitive name collision
func (s *Storage) SubscriptionNameExists(ctx context.Context, userID, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM recurring_transactions WHERE user_id = ? AND name = ?`),
		userID, name,
	).Scan(&count)
	if err != nil {
		return false, recurring.StorageFailure("check subscription name", err)
	}
	return count > 0, nil
}

// SetSubscriptionActive toggles the active flag
func (s *Storage) SetSubscriptionActive(ctx context.Context, userID, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE recurring_transactions SET is_active = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		active, utc(time.Now()), id, userID,
	)
	if err != nil {
		return recurring.StorageFailure("set subscription active", err)
	}
	return recurring.StorageFailure("set subscription active", requireAffected(res, "subscription"))
}

// DeleteSubscription unlinks the subscription's transactions and deletes it.
// Unlinking runs first so the count reflects what the delete released.
func (s *Storage) DeleteSubscription(ctx context.Context, userID, id string) (int, error) {
	unlinked := 0
	err := s.withTx(ctx, func(dbtx *sql.Tx) error {
		res, err := dbtx.ExecContext(ctx,
			s.rebind(`UPDATE transactions SET recurring_transaction_id = NULL
				WHERE user_id = ? AND recurring_transaction_id = ?`),
			userID, id,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		unlinked = int(n)

		res, err = dbtx.ExecContext(ctx,
			s.rebind(`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`),
			id, userID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res, "subscription")
	})
	if err != nil {
		return 0, recurring.StorageFailure("delete subscription", err)
	}
	return unlinked, nil
}
