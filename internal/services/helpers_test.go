package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := storage.OpenSQLite(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })
	return st
}

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeProvider) FetchAPOD(ctx context.Context, date string) (*models.APODResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.APODResponse{
		Date:        date,
		Title:       "APOD " + date,
		Explanation: "explanation",
		URL:         "https://apod.nasa.gov/apod/image/" + date + ".jpg",
		MediaType:   "image",
	}, nil
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
