package models

type Vote struct {
	ID     int64 `json:"id"`
	PostID int64 `json:"post_id"`
	UserID int64 `json:"user_id"`
}

// CreateVote is the form body of POST /votes and POST /votes/delete.
// UserID is optional; when present it must match the session user.
type CreateVote struct {
	PostID int64 `json:"post_id"`
	UserID int64 `json:"user_id"`
}
