package services

import (
	"context"
	"errors"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/storage"
)

var (
	ErrAlreadyVoted = errors.New("already voted")
	ErrVoteNotFound = errors.New("vote not found")
)

const DefaultTopPosts = 10

type voteStore interface {
	storage.PostStore
	storage.VoteStore
}

type VoteService struct {
	store voteStore
}

func NewVoteService(store voteStore) *VoteService {
	return &VoteService{store: store}
}

func (s *VoteService) RecordVote(ctx context.Context, userID, postID int64) (*models.Vote, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	vote, err := s.store.CreateVote(ctx, postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			return nil, ErrAlreadyVoted
		case errors.Is(err, storage.ErrNotFound):
			// The post was deleted after the lookup above.
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return vote, nil
}

func (s *VoteService) RemoveVote(ctx context.Context, userID, postID int64) error {
	if err := s.store.DeleteVote(ctx, postID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrVoteNotFound
		}
		return err
	}
	return nil
}

func (s *VoteService) CountVotes(ctx context.Context, postID int64) (int64, error) {
	return s.store.CountVotes(ctx, postID)
}

func (s *VoteService) HasVoted(ctx context.Context, userID, postID int64) (bool, error) {
	return s.store.HasVoted(ctx, userID, postID)
}

// TopPosts returns up to limit posts ordered by vote count, ties broken by id.
// Posts without votes are not ranked.
func (s *VoteService) TopPosts(ctx context.Context, viewerID int64, limit int) ([]models.DisplayPost, error) {
	if limit <= 0 {
		limit = DefaultTopPosts
	}
	ids, err := s.store.TopPostIDs(ctx, limit)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		p, err := s.store.GetPost(ctx, id)
		if err != nil {
			// Deleted between the ranking and the lookup.
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		posts = append(posts, *p)
	}
	return s.display(ctx, viewerID, posts)
}

// DisplayPosts decorates every post with its tally and whether viewerID liked it.
// A zero viewerID is an anonymous visitor.
func (s *VoteService) DisplayPosts(ctx context.Context, viewerID int64) ([]models.DisplayPost, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	return s.display(ctx, viewerID, posts)
}

func (s *VoteService) display(ctx context.Context, viewerID int64, posts []models.Post) ([]models.DisplayPost, error) {
	out := make([]models.DisplayPost, 0, len(posts))
	for _, p := range posts {
		n, err := s.store.CountVotes(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		liked := false
		if viewerID > 0 {
			if liked, err = s.store.HasVoted(ctx, viewerID, p.ID); err != nil {
				return nil, err
			}
		}
		out = append(out, models.DisplayPost{Post: p, AlreadyLiked: liked, NumLikes: n})
	}
	return out, nil
}
