package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// exerciseKV runs the behaviour every backend must share
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	require.NoError(t, kv.Set(ctx, "k", []byte("v2")))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	// deleting an absent key is not an error
	require.NoError(t, kv.Delete(ctx, "k"))
}

func newTestBoltKV(t *testing.T) KV {
	t.Helper()
	kv, err := NewBoltKV(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestBoltKV(t *testing.T) {
	exerciseKV(t, newTestBoltKV(t))
}

func TestBoltKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.db")
	ctx := context.Background()

	kv, err := NewBoltKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, CartKey, []byte(`[]`)))
	require.NoError(t, kv.Close())

	kv, err = NewBoltKV(path)
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get(ctx, CartKey)
	require.NoError(t, err)
	require.Equal(t, []byte(`[]`), got)
}

func TestRedisKV(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	kv := NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	defer kv.Close()

	exerciseKV(t, kv)

	require.NoError(t, kv.Set(context.Background(), "prefixed", []byte("x")))
	require.True(t, mr.Exists("test:prefixed"))
}

func TestRedisKVUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	kv := NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "test")
	defer kv.Close()
	mr.Close()

	_, err = kv.Get(context.Background(), "k")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestPostgresKV(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	ctx := context.Background()
	dbContainer, err := postgres.Run(
		ctx,
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer dbContainer.Terminate(ctx)

	connStr, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(db, zap.NewNop()))

	version, err := database.SchemaVersion(db)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)

	kv := NewPostgresKV(db)
	defer kv.Close()

	exerciseKV(t, kv)

	host, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	port, err := dbContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	opened, err := Open(ctx, &config.Config{
		Storage:  config.StorageConfig{Backend: "postgres"},
		Database: config.DatabaseConfig{
			Host:     host,
			Port:     port.Port(),
			User:     dbUser,
			Password: dbPwd,
			Database: dbName,
			Schema:   "public",
		},
	}, zap.NewNop())
	require.NoError(t, err)
	defer opened.Close()

	require.NoError(t, opened.Set(ctx, CartKey, []byte("[]")))
}
