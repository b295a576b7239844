package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// latestMigrationVersion is the highest migration version we expect
// Update this when adding new migrations
const latestMigrationVersion = 2

// TestMigrations_FreshDatabase tests running migrations on a fresh database
func TestMigrations_FreshDatabase(t *testing.T) {
	store := newTestStorage(t)

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(latestMigrationVersion), version)

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE version_id > 0 AND is_applied = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, latestMigrationVersion, count)
}

// TestMigrations_Idempotency tests that migrations can be run multiple times
func TestMigrations_Idempotency(t *testing.T) {
	tmpDB := createTempDB(t)
	defer os.Remove(tmpDB)

	// Run migrations first time
	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	store.Close()

	// Run migrations second time (should be idempotent)
	store, err = NewStorage(tmpDB)
	require.NoError(t, err)
	defer store.Close()

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE version_id > 0 AND is_applied = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, latestMigrationVersion, count, "Should still have exactly %d migrations", latestMigrationVersion)
}

// TestMigrations_TablesExist verifies the schema
func TestMigrations_TablesExist(t *testing.T) {
	store := newTestStorage(t)

	for _, table := range []string{"transactions", "recurring_transactions", "categories", "goose_db_version"} {
		err := store.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(new(int))
		assert.NoError(t, err, "%s table should exist", table)
	}
}

// TestMigrations_ForeignKeyConstraints tests that foreign keys are enforced
func TestMigrations_ForeignKeyConstraints(t *testing.T) {
	store := newTestStorage(t)

	// Verify foreign keys are enabled
	var fkEnabled int
	err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	require.NoError(t, err)
	assert.Equal(t, 1, fkEnabled, "Foreign keys should be enabled")

	// Link to a subscription that does not exist
	_, err = store.db.Exec(`
		INSERT INTO transactions (id, user_id, amount, currency, booked_at, recurring_transaction_id)
		VALUES ('tx-1', 'user-1', -9.99, 'EUR', '2025-01-01 00:00:00+00:00', 'missing')
	`)
	assert.Error(t, err, "Should fail to link a transaction to a non-existent subscription")
	assert.Contains(t, err.Error(), "FOREIGN KEY constraint failed")
}

// TestMigrations_DeleteSetsNull verifies ON DELETE SET NULL on the link column
func TestMigrations_DeleteSetsNull(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.db.Exec(`
		INSERT INTO recurring_transactions (id, user_id, name, amount, currency, frequency, created_at, updated_at)
		VALUES ('sub-1', 'user-1', 'Spotify', 9.99, 'EUR', 'monthly', '2025-01-01 00:00:00+00:00', '2025-01-01 00:00:00+00:00')
	`)
	require.NoError(t, err)
	_, err = store.db.Exec(`
		INSERT INTO transactions (id, user_id, amount, currency, booked_at, recurring_transaction_id)
		VALUES ('tx-1', 'user-1', -9.99, 'EUR', '2025-01-01 00:00:00+00:00', 'sub-1')
	`)
	require.NoError(t, err)

	_, err = store.db.Exec(`DELETE FROM recurring_transactions WHERE id = 'sub-1'`)
	require.NoError(t, err)

	var link *string
	err = store.db.QueryRow(`SELECT recurring_transaction_id FROM transactions WHERE id = 'tx-1'`).Scan(&link)
	require.NoError(t, err)
	assert.Nil(t, link)
}

// TestMigrations_CheckConstraints rejects out-of-range importance and unknown frequency
func TestMigrations_CheckConstraints(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.db.Exec(`
		INSERT INTO recurring_transactions (id, user_id, name, amount, currency, importance, frequency, created_at, updated_at)
		VALUES ('sub-1', 'user-1', 'A', 1, 'EUR', 4, 'monthly', '2025-01-01', '2025-01-01')
	`)
	assert.Error(t, err)

	_, err = store.db.Exec(`
		INSERT INTO recurring_transactions (id, user_id, name, amount, currency, frequency, created_at, updated_at)
		VALUES ('sub-2', 'user-1', 'B', 1, 'EUR', 'daily', '2025-01-01', '2025-01-01')
	`)
	assert.Error(t, err)
}

func createTempDB(t *testing.T) string {
	tmpFile, err := os.CreateTemp("", "test_*.db")
	require.NoError(t, err)
	tmpFile.Close()
	return tmpFile.Name()
}
