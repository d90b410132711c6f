package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/config"
	"github.com/Skufu/glucocheck/internal/vitals"
)

var base = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func record(t *testing.T, i int) assessment.Record {
	t.Helper()
	rec, err := assessment.ToRecord(
		vitals.SampleInputs().Set(vitals.Glucose, float64(90+i)),
		assessment.PredictionResponse{Success: true, Prediction: i % 2, Probability: float64(i) / 20},
		base.Add(time.Duration(i)*time.Minute),
	)
	require.NoError(t, err)
	return rec
}

// runStoreSuite exercises the behaviour every Store must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty history", func(t *testing.T) {
		s := newStore(t)
		history, err := s.List(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("append caps at ten most recent first", func(t *testing.T) {
		s := newStore(t)
		owner := uuid.NewString()
		var all []assessment.Record
		for i := 0; i < 11; i++ {
			rec := record(t, i)
			all = append(all, rec)
			_, err := s.Append(ctx, owner, rec)
			require.NoError(t, err)
		}

		history, err := s.List(ctx, owner)
		require.NoError(t, err)
		require.Len(t, history, 10)
		assert.Equal(t, all[10].ID, history[0].ID)
		assert.Equal(t, all[1].ID, history[9].ID)
		assert.Equal(t, all[10].Inputs, history[0].Inputs)
		assert.True(t, all[10].Timestamp.Equal(history[0].Timestamp))
	})

	t.Run("owners are isolated and clear is scoped", func(t *testing.T) {
		s := newStore(t)
		a, b := uuid.NewString(), uuid.NewString()
		_, err := s.Append(ctx, a, record(t, 1))
		require.NoError(t, err)
		_, err = s.Append(ctx, b, record(t, 2))
		require.NoError(t, err)

		require.NoError(t, s.Clear(ctx, a))
		ha, err := s.List(ctx, a)
		require.NoError(t, err)
		assert.Empty(t, ha)
		hb, err := s.List(ctx, b)
		require.NoError(t, err)
		assert.Len(t, hb, 1)
	})

	t.Run("preferences", func(t *testing.T) {
		s := newStore(t)
		owner := uuid.NewString()
		_, err := s.GetPreference(ctx, owner, ThemeKey)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.SetPreference(ctx, owner, ThemeKey, "dark"))
		require.NoError(t, s.SetPreference(ctx, owner, ThemeKey, "light"))
		v, err := s.GetPreference(ctx, owner, ThemeKey)
		require.NoError(t, err)
		assert.Equal(t, "light", v)
	})

	t.Run("concurrent appends keep the cap", func(t *testing.T) {
		s := newStore(t)
		owner := uuid.NewString()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.Append(ctx, owner, record(t, i))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		history, err := s.List(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, history, 10)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemory(0) })
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"), 10)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStoreReadsBrowserShapedHistory(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"), 10)
	require.NoError(t, err)
	defer s.Close()

	legacy := `[{"id":1710408600000,"date":"2025-03-14T09:30:00.000Z",
		"inputs":{"glucose":"120","bmi":"25.5","age":"35"},"prediction":1,"probability":0.7}]`
	require.NoError(t, s.put(ctx, s.db, "legacy", HistoryKey, legacy))

	history, err := s.List(ctx, "legacy")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 120.0, history[0].Inputs.Get(vitals.Glucose))

	next, err := s.Append(ctx, "legacy", record(t, 3))
	require.NoError(t, err)
	assert.Len(t, next, 2)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := ConnectPostgres(context.Background(), url, 10)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		s := NewRedis(RedisOptions{Addr: addr, TTL: time.Minute}, 10)
		require.NoError(t, s.Ping(context.Background()))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenSelectsDriver(t *testing.T) {
	s, err := Open(context.Background(), &config.Config{HistoryDriver: config.DriverMemory, HistorySize: 3})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(context.Background(), &config.Config{
		HistoryDriver: config.DriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "nested", "h.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), &config.Config{HistoryDriver: "mongo"})
	require.Error(t, err)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(2)
	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, "o", record(t, i))
		require.NoError(t, err)
	}
	history, err := s.List(ctx, "o")
	require.NoError(t, err)
	require.Len(t, history, 2)
	history[0].ID = "mutated"

	again, err := s.List(ctx, "o")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].ID)
}
