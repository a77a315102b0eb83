package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-scraper/models"
	"phone-scraper/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDBUnsupportedDriver(t *testing.T) {
	_, err := NewDB("mysql", "")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	lite := &DB{driver: DriverSQLite}
	query := "INSERT INTO t (a, b) VALUES ($1, $2)"

	assert.Equal(t, query, pg.rebind(query))
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (?, ?)", lite.rebind(query))
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	table, err := db.Load(ctx, store.DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	results := []models.PageResult{
		{URL: "a.com", Phones: []string{"212-555-0101", "415-555-2671"}},
		{URL: "c.com", Phones: []string{}, Error: "c.com did'nt opened properly got HTTP code 404"},
	}
	table.Append(models.Flatten(results)...)
	require.NoError(t, db.Save(ctx, table, results))

	reloaded, err := db.Load(ctx, store.DefaultName)
	require.NoError(t, err)
	assert.Equal(t, table.Rows(), reloaded.Rows())
	assert.True(t, reloaded.Has("a.com"))

	raw, err := db.PageResults(ctx, store.DefaultName)
	require.NoError(t, err)
	assert.Equal(t, results, raw)
}

func TestSaveOnlyInsertsNewRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	first, err := db.Load(ctx, "phones")
	require.NoError(t, err)
	first.Append(models.OutputRow{URL: "a.com", Phone: "212-555-0101"})
	require.NoError(t, db.Save(ctx, first, nil))

	second, err := db.Load(ctx, "phones")
	require.NoError(t, err)
	second.Append(models.OutputRow{URL: "b.com", Phone: models.NoPhonesFound})
	require.NoError(t, db.Save(ctx, second, nil))

	final, err := db.Load(ctx, "phones")
	require.NoError(t, err)
	assert.Equal(t, []models.OutputRow{
		{URL: "a.com", Phone: "212-555-0101"},
		{URL: "b.com", Phone: models.NoPhonesFound},
	}, final.Rows())

	other, err := db.Load(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())
}

func TestSaveGroupsResultsByRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, url := range []string{"a.com", "b.com"} {
		table, err := db.Load(ctx, store.DefaultName)
		require.NoError(t, err)
		results := []models.PageResult{{URL: url, Phones: []string{}}, {URL: url + "/contact", Phones: []string{}}}
		table.Append(models.Flatten(results)...)
		require.NoError(t, db.Save(ctx, table, results))
	}

	var runs, results int
	err := db.GetConn().QueryRowContext(ctx, `SELECT COUNT(DISTINCT run_id), COUNT(*) FROM page_results`).Scan(&runs, &results)
	require.NoError(t, err)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 4, results)
}
