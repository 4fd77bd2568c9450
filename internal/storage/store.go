package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/apodboard/backend/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate key")
	ErrUnavailable = errors.New("database unavailable")
)

// Store is the relational state of the application. Every implementation enforces
// uniqueness of users.email, posts.query_string, votes(user_id, post_id) and
// admins(admin_user_id), reporting violations as ErrDuplicate.
type Store interface {
	UserStore
	AdminStore
	PostStore
	VoteStore
	Close(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserBanned(ctx context.Context, email string, banned bool) error
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	// AddAdmin is idempotent.
	AddAdmin(ctx context.Context, userID int64) error
	RemoveAdmin(ctx context.Context, userID int64) error
}

type PostStore interface {
	CreatePost(ctx context.Context, req *models.CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	GetPostByQueryString(ctx context.Context, queryString string) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsVotedByUser(ctx context.Context, userID int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, req *models.UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

type VoteStore interface {
	CreateVote(ctx context.Context, postID, userID int64) (*models.Vote, error)
	DeleteVote(ctx context.Context, postID, userID int64) error
	CountVotes(ctx context.Context, postID int64) (int64, error)
	HasVoted(ctx context.Context, userID, postID int64) (bool, error)
	// TopPostIDs ranks posts by vote count, highest first.
	TopPostIDs(ctx context.Context, limit int) ([]int64, error)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
