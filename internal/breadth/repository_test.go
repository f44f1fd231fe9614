package breadth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/pkg/database"
)

// Integration test against a real database. Requires DATABASE_URL and the
// current-generation schema; skipped in short mode.
func TestRepositoryUpsertMerge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	db := &database.DB{Pool: pool}
	repo, err := NewRepository(db, "current", NewFieldMapper(), testLogger())
	require.NoError(t, err)

	// Far-future date to avoid colliding with real data.
	date := time.Date(2099, 6, 15, 0, 0, 0, 0, time.UTC)

	first := &contracts.RawBreadthRecord{
		Date:                date,
		StocksUp4PctDaily:   contracts.IntPtr(180),
		StocksDown4PctDaily: contracts.IntPtr(120),
		T2108:               contracts.FloatPtr(65.4),
		DataSource:          contracts.DataSourceManual,
	}
	id1, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	assert.NotZero(t, id1)

	// Second write: partial, must merge not clobber.
	second := &contracts.RawBreadthRecord{
		Date:              date,
		StocksUp4PctDaily: contracts.IntPtr(200),
		VIX:               contracts.FloatPtr(14.2),
		DataSource:        contracts.DataSourceImported,
	}
	id2, err := repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same date must hit the same row")

	got, err := repo.GetByDate(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 200, *got.StocksUp4PctDaily)
	assert.Equal(t, 120, *got.StocksDown4PctDaily, "stored value must survive incoming nil")
	assert.Equal(t, 65.4, *got.T2108)
	assert.Equal(t, 14.2, *got.VIX)
	assert.Equal(t, contracts.DataSourceImported, got.DataSource)
	assert.NotZero(t, got.BreadthScore)

	// Range read returns it in order.
	records, err := repo.GetRange(ctx, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, date, records[0].DateKey())

	// Absent date is (nil, nil), not an error.
	missing, err := repo.GetByDate(ctx, date.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Cleanup.
	_, err = pool.Exec(ctx, "DELETE FROM market_breadth_daily WHERE date = $1", date)
	require.NoError(t, err)
}
