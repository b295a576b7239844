package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

const transactionColumns = `id, user_id, account_id, amount, currency, merchant, description,
	booked_at, category_id, recurring_transaction_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*recurring.Transaction, error) {
	var (
		tx                                  recurring.Transaction
		merchant, description, category, rt sql.NullString
	)
	if err := row.Scan(
		&tx.ID, &tx.UserID, &tx.AccountID, &tx.Amount, &tx.Currency,
		&merchant, &description, &tx.BookedAt, &category, &rt,
	); err != nil {
		return nil, err
	}
	tx.Merchant = stringPtr(merchant)
	tx.Description = stringPtr(description)
	tx.CategoryID = stringPtr(category)
	tx.RecurringTransactionID = stringPtr(rt)
	tx.BookedAt = utc(tx.BookedAt)
	return &tx, nil
}

// GetTransaction retrieves a transaction owned by userID
func (s *Storage) GetTransaction(ctx context.Context, userID, id string) (*recurring.Transaction, error) {
	query := s.rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`)

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recurring.NotFound("transaction")
	}
	if err != nil {
		return nil, recurring.StorageFailure("get transaction", err)
	}
	return tx, nil
}

// ListExpenseHistory returns expense transactions for the detection window
func (s *Storage) ListExpenseHistory(ctx context.Context, userID string, since time.Time, limit int) ([]*recurring.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = ? AND amount < 0 AND booked_at >= ?
		ORDER BY booked_at DESC, id`
	args := []any{userID, utc(since)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, recurring.StorageFailure("list history", err)
	}
	defer rows.Close()

	var result []*recurring.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, recurring.StorageFailure("scan history", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, recurring.StorageFailure("list history", err)
	}
	return result, nil
}

// ImportTransactions inserts transactions in one database transaction
func (s *Storage) ImportTransactions(ctx context.Context, txs []*recurring.Transaction) (int, error) {
	query := s.rebind(`INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)

	inserted := 0
	err := s.withTx(ctx, func(dbtx *sql.Tx) error {
		stmt, err := dbtx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, tx := range txs {
			if tx == nil {
				continue
			}
			res, err := stmt.ExecContext(ctx,
				tx.ID, tx.UserID, tx.AccountID, tx.Amount, tx.Currency,
				nullString(tx.Merchant), nullString(tx.Description), utc(tx.BookedAt),
				nullString(tx.CategoryID), nullString(tx.RecurringTransactionID),
			)
			if err != nil {
				return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, recurring.StorageFailure("import transactions", err)
	}
	return inserted, nil
}

// LinkTransaction links a transaction to a subscription of the same user
func (s *Storage) LinkTransaction(ctx context.Context, userID, transactionID, subscriptionID string) error {
	err := s.withTx(ctx, func(dbtx *sql.Tx) error {
		var one int
		err := dbtx.QueryRowContext(ctx,
			s.rebind(`SELECT 1 FROM recurring_transactions WHERE id = ? AND user_id = ?`),
			subscriptionID, userID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return recurring.NotFound("subscription")
		}
		if err != nil {
			return err
		}

		res, err := dbtx.ExecContext(ctx,
			s.rebind(`UPDATE transactions SET recurring_transaction_id = ? WHERE id = ? AND user_id = ?`),
			subscriptionID, transactionID, userID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res, "transaction")
	})
	return recurring.StorageFailure("link transaction", err)
}

// UnlinkTransaction clears the subscription link of a transaction
func (s *Storage) UnlinkTransaction(ctx context.Context, userID, transactionID string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE transactions SET recurring_transaction_id = NULL WHERE id = ? AND user_id = ?`),
		transactionID, userID,
	)
	if err != nil {
		return recurring.StorageFailure("unlink transaction", err)
	}
	return recurring.StorageFailure("unlink transaction", requireAffected(res, "transaction"))
}

// requireAffected turns a zero-row update into a not_found error
func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return recurring.NotFound(resource)
	}
	return nil
}
