//go:build integration

package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"emporia/internal/testdb"
)

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	pool := testdb.New(t)

	require.NoError(t, Apply(ctx, pool, nil))
	require.NoError(t, Apply(ctx, pool, nil))

	for table, want := range map[string]int{"users": 3, "categories": 2, "products": 3} {
		var n int
		require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n))
		require.Equal(t, want, n, table)
	}
}
