package services

import (
	"context"
	"errors"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/storage"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrPostExists   = errors.New("post already exists")
)

type PostService struct {
	store voteStore
}

func NewPostService(store voteStore) *PostService {
	return &PostService{store: store}
}

func postErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrPostNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return ErrPostExists
	default:
		return err
	}
}

func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	return s.store.ListPosts(ctx)
}

func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, postErr(err)
	}
	return p, nil
}

func (s *PostService) Create(ctx context.Context, req *models.CreatePostRequest) (*models.Post, error) {
	p, err := s.store.CreatePost(ctx, req)
	if err != nil {
		return nil, postErr(err)
	}
	return p, nil
}

func (s *PostService) Update(ctx context.Context, req *models.UpdatePostRequest) (*models.Post, error) {
	p, err := s.store.UpdatePost(ctx, req)
	if err != nil {
		return nil, postErr(err)
	}
	return p, nil
}

// Delete removes the post and, through the store, its votes.
func (s *PostService) Delete(ctx context.Context, id int64) error {
	return postErr(s.store.DeletePost(ctx, id))
}

// ListVotedByUser returns the posts userID has voted for.
func (s *PostService) ListVotedByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.store.ListPostsVotedByUser(ctx, userID)
}
