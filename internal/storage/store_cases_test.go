package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/apodboard/backend/internal/models"
)

// storeCases run against every backend. Each case gets an empty store.
var storeCases = map[string]func(*testing.T, Store){
	"UserLifecycle":         testUserLifecycle,
	"AdminIdempotent":       testAdminIdempotent,
	"PostQueryStringUnique": testPostQueryStringUnique,
	"PostUpdateDelete":      testPostUpdateDelete,
	"DuplicateVote":         testDuplicateVote,
	"TopPostIDs":            testTopPostIDs,
}

// foreignKeyCases need referential integrity, which only the SQL backends enforce.
var foreignKeyCases = map[string]func(*testing.T, Store){
	"VoteForMissingPost": testVoteForMissingPost,
}

func runStoreCases(t *testing.T, cases map[string]func(*testing.T, Store), open func(t *testing.T) Store) {
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func mustPost(t *testing.T, st Store, qs string) *models.Post {
	t.Helper()
	p, err := st.CreatePost(context.Background(), &models.CreatePostRequest{
		Title:       "Post " + qs,
		QueryString: qs,
		ApodDate:    qs,
	})
	if err != nil {
		t.Fatalf("create post %s: %v", qs, err)
	}
	return p
}

func mustUser(t *testing.T, st Store, email string) *models.User {
	t.Helper()
	u, err := st.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func testUserLifecycle(t *testing.T, st Store) {
	ctx := context.Background()

	u := mustUser(t, st, "a@b.com")
	if u.ID == 0 {
		t.Fatalf("expected user id")
	}
	if _, err := st.CreateUser(ctx, "a@b.com", "other"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	if err := st.SetUserBanned(ctx, "a@b.com", true); err != nil {
		t.Fatalf("ban: %v", err)
	}
	got, err := st.GetUserByEmail(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.IsBanned {
		t.Fatalf("expected banned user")
	}

	if err := st.SetUserBanned(ctx, "nobody@b.com", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := st.GetUserByEmail(ctx, "nobody@b.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testAdminIdempotent(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st, "admin@b.com")

	for i := 0; i < 2; i++ {
		if err := st.AddAdmin(ctx, u.ID); err != nil {
			t.Fatalf("add admin #%d: %v", i, err)
		}
	}
	ok, err := st.IsAdmin(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("expected admin, got %v %v", ok, err)
	}

	if err := st.RemoveAdmin(ctx, u.ID); err != nil {
		t.Fatalf("remove admin: %v", err)
	}
	ok, err = st.IsAdmin(ctx, u.ID)
	if err != nil || ok {
		t.Fatalf("expected non-admin after a single removal, got %v %v", ok, err)
	}
}

func testPostQueryStringUnique(t *testing.T, st Store) {
	ctx := context.Background()

	p := mustPost(t, st, "1999-08-09")
	if _, err := st.CreatePost(ctx, &models.CreatePostRequest{Title: "x", QueryString: "1999-08-09"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	got, err := st.GetPostByQueryString(ctx, "1999-08-09")
	if err != nil {
		t.Fatalf("get by query string: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("expected id %d, got %d", p.ID, got.ID)
	}
}

func testPostUpdateDelete(t *testing.T, st Store) {
	ctx := context.Background()
	p := mustPost(t, st, "2000-01-01")

	updated, err := st.UpdatePost(ctx, &models.UpdatePostRequest{
		ID: p.ID, Title: "New", QueryString: p.QueryString, ImgURL: "https://example.com/a.jpg",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New" || updated.ImgURL != "https://example.com/a.jpg" {
		t.Fatalf("unexpected post %+v", updated)
	}

	if _, err := st.UpdatePost(ctx, &models.UpdatePostRequest{ID: 999, Title: "x", QueryString: "y"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	u := mustUser(t, st, "v@b.com")
	if _, err := st.CreateVote(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := st.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeletePost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	n, err := st.CountVotes(ctx, p.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected votes to cascade, got %d", n)
	}
}

func testDuplicateVote(t *testing.T, st Store) {
	ctx := context.Background()
	p := mustPost(t, st, "2001-01-01")
	u := mustUser(t, st, "v@b.com")

	if _, err := st.CreateVote(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("create vote: %v", err)
	}
	if _, err := st.CreateVote(ctx, p.ID, u.ID); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate vote error, got %v", err)
	}

	voted, err := st.HasVoted(ctx, u.ID, p.ID)
	if err != nil || !voted {
		t.Fatalf("expected vote, got %v %v", voted, err)
	}

	posts, err := st.ListPostsVotedByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list voted: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != p.ID {
		t.Fatalf("unexpected voted posts %+v", posts)
	}

	if err := st.DeleteVote(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("delete vote: %v", err)
	}
	if err := st.DeleteVote(ctx, p.ID, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testTopPostIDs(t *testing.T, st Store) {
	ctx := context.Background()

	counts := []int{5, 3, 3, 1}
	posts := make([]*models.Post, len(counts))
	for i := range counts {
		posts[i] = mustPost(t, st, fmt.Sprintf("2002-01-0%d", i+1))
	}
	users := make([]*models.User, 5)
	for i := range users {
		users[i] = mustUser(t, st, fmt.Sprintf("u%d@b.com", i))
	}
	for i, n := range counts {
		for j := 0; j < n; j++ {
			if _, err := st.CreateVote(ctx, posts[i].ID, users[j].ID); err != nil {
				t.Fatalf("vote: %v", err)
			}
		}
	}

	ids, err := st.TopPostIDs(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 ranked posts, got %v", ids)
	}
	if ids[0] != posts[0].ID {
		t.Fatalf("expected post %d first, got %v", posts[0].ID, ids)
	}
	if ids[3] != posts[3].ID {
		t.Fatalf("expected post %d last, got %v", posts[3].ID, ids)
	}

	ids, err = st.TopPostIDs(ctx, 2)
	if err != nil {
		t.Fatalf("top limited: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected limit to apply, got %v", ids)
	}
}

func testVoteForMissingPost(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st, "v@b.com")

	if _, err := st.CreateVote(ctx, 999, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for a missing post, got %v", err)
	}
	if _, err := st.CreateVote(ctx, mustPost(t, st, "2003-03-03").ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for a missing user, got %v", err)
	}
}
