package storage

import (
	"context"
	"os"
	"testing"
)

// TestPostgresStore runs the shared cases against a scratch database named by
// APOD_TEST_DATABASE_URL. Every table is truncated before each case.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("APOD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("APOD_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	st, err := NewPostgresStore(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	open := func(t *testing.T) Store {
		t.Helper()
		if _, err := st.pool.Exec(ctx, `TRUNCATE votes, admins, posts, users RESTART IDENTITY CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return st
	}
	runStoreCases(t, storeCases, open)
	runStoreCases(t, foreignKeyCases, open)
}
