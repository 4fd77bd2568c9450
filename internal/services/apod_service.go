package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/storage"
)

const apodDateLayout = "2006-01-02"

// FirstAPODDate is the earliest date the provider serves.
var FirstAPODDate = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// ApodService serves posts keyed by query string, filling misses from the provider.
type ApodService struct {
	posts    storage.PostStore
	provider APODProvider
	now      func() time.Time
}

func NewApodService(posts storage.PostStore, provider APODProvider) *ApodService {
	return &ApodService{posts: posts, provider: provider, now: time.Now}
}

// Fetch returns the cached post for queryString, or fetches and persists it.
// cached reports whether the provider was skipped.
func (s *ApodService) Fetch(ctx context.Context, queryString string) (*models.Post, bool, error) {
	qs := strings.TrimSpace(queryString)
	if qs == "" {
		return nil, false, ErrInvalidDateRange
	}

	post, err := s.posts.GetPostByQueryString(ctx, qs)
	if err == nil {
		log.Printf("[apod] cache hit query=%s post=%d", qs, post.ID)
		return post, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	if err := s.validateDate(qs); err != nil {
		return nil, false, err
	}

	log.Printf("[apod] cache miss query=%s", qs)
	apod, err := s.provider.FetchAPOD(ctx, qs)
	if err != nil {
		log.Printf("[apod] fetch failed query=%s: %v", qs, err)
		return nil, false, err
	}

	post, err = s.posts.CreatePost(ctx, apod.ToCreatePost(qs))
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// A concurrent request filled the same key first.
			post, err = s.posts.GetPostByQueryString(ctx, qs)
			if err != nil {
				return nil, false, err
			}
			return post, true, nil
		}
		return nil, false, err
	}
	return post, false, nil
}

func (s *ApodService) validateDate(qs string) error {
	d, err := time.Parse(apodDateLayout, qs)
	if err != nil {
		return ErrInvalidDateRange
	}
	if d.Before(FirstAPODDate) {
		return ErrInvalidDateRange
	}
	// The provider publishes in US Eastern time; allow one day of skew.
	if d.After(s.now().UTC().AddDate(0, 0, 1)) {
		return ErrInvalidDateRange
	}
	return nil
}

// Backfill fetches every date in [from, to] and reports how many were newly stored.
func (s *ApodService) Backfill(ctx context.Context, from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, ErrInvalidDateRange
	}
	added := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		_, cached, err := s.Fetch(ctx, d.Format(apodDateLayout))
		if err != nil {
			return added, err
		}
		if !cached {
			added++
		}
	}
	return added, nil
}
