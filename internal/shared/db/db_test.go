package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, []string{"0001_init.sql", "0002_sweep_cursor.sql"}, names)

	body, err := migrationsFS.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	for _, table := range []string{"wallets", "wallet_ledger", "games", "bets", "bet_legs", "bet_transactions"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table+" ", table)
	}
}
