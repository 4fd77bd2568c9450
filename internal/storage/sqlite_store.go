package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/apodboard/backend/internal/models"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		is_banned INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		admin_user_id INTEGER NOT NULL UNIQUE,
		FOREIGN KEY(admin_user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		query_string TEXT NOT NULL UNIQUE,
		explanation TEXT NOT NULL DEFAULT '',
		img_url TEXT NOT NULL DEFAULT '',
		apod_date TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_unique ON votes(user_id, post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_post_id ON votes(post_id)`,
}

// SQLiteStore backs local development and tests.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps the foreign_keys pragma and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

// isForeignKeyViolation reports a reference to a row that no longer exists,
// e.g. a vote racing the deletion of its post.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func sqliteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return unavailable(err)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password, is_banned) VALUES (?, ?, 0)`, email, passwordHash)
	if err != nil {
		return nil, sqliteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, unavailable(err)
	}
	return &models.User{ID: id, Email: email, PasswordHash: passwordHash}, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password, is_banned FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsBanned)
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &u, nil
}

func (s *SQLiteStore) SetUserBanned(ctx context.Context, email string, banned bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_banned = ? WHERE email = ?`, banned, email)
	if err != nil {
		return sqliteErr(err)
	}
	return requireAffected(res)
}

// Admins

func (s *SQLiteStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE admin_user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, sqliteErr(err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) AddAdmin(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (admin_user_id) VALUES (?) ON CONFLICT(admin_user_id) DO NOTHING`, userID)
	return sqliteErr(err)
}

func (s *SQLiteStore) RemoveAdmin(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE admin_user_id = ?`, userID)
	return sqliteErr(err)
}

// Posts

const sqlitePostColumns = `id, title, query_string, explanation, img_url, apod_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePost(row rowScanner) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.Title, &p.QueryString, &p.Explanation, &p.ImgURL, &p.ApodDate); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) CreatePost(ctx context.Context, req *models.CreatePostRequest) (*models.Post, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (title, query_string, explanation, img_url, apod_date) VALUES (?, ?, ?, ?, ?)`,
		req.Title, req.QueryString, req.Explanation, req.ImgURL, req.ApodDate,
	)
	if err != nil {
		return nil, sqliteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, unavailable(err)
	}
	return &models.Post{
		ID:          id,
		Title:       req.Title,
		QueryString: req.QueryString,
		Explanation: req.Explanation,
		ImgURL:      req.ImgURL,
		ApodDate:    req.ApodDate,
	}, nil
}

func (s *SQLiteStore) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanSQLitePost(s.db.QueryRowContext(ctx,
		`SELECT `+sqlitePostColumns+` FROM posts WHERE id = ?`, id))
	if err != nil {
		return nil, sqliteErr(err)
	}
	return p, nil
}

func (s *SQLiteStore) GetPostByQueryString(ctx context.Context, queryString string) (*models.Post, error) {
	p, err := scanSQLitePost(s.db.QueryRowContext(ctx,
		`SELECT `+sqlitePostColumns+` FROM posts WHERE query_string = ?`, queryString))
	if err != nil {
		return nil, sqliteErr(err)
	}
	return p, nil
}

func (s *SQLiteStore) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sqliteErr(err)
	}
	defer rows.Close()

	out := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanSQLitePost(rows)
		if err != nil {
			return nil, sqliteErr(err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr(err)
	}
	return out, nil
}

func (s *SQLiteStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.queryPosts(ctx, `SELECT `+sqlitePostColumns+` FROM posts ORDER BY id`)
}

func (s *SQLiteStore) ListPostsVotedByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.queryPosts(ctx,
		`SELECT p.id, p.title, p.query_string, p.explanation, p.img_url, p.apod_date
		FROM posts p
		INNER JOIN votes v ON v.post_id = p.id
		WHERE v.user_id = ?
		ORDER BY p.id`, userID)
}

func (s *SQLiteStore) UpdatePost(ctx context.Context, req *models.UpdatePostRequest) (*models.Post, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts
		SET title = ?, query_string = ?, explanation = ?, img_url = ?, apod_date = ?
		WHERE id = ?`,
		req.Title, req.QueryString, req.Explanation, req.ImgURL, req.ApodDate, req.ID,
	)
	if err != nil {
		return nil, sqliteErr(err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, req.ID)
}

func (s *SQLiteStore) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return sqliteErr(err)
	}
	return requireAffected(res)
}

// Votes

func (s *SQLiteStore) CreateVote(ctx context.Context, postID, userID int64) (*models.Vote, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO votes (post_id, user_id) VALUES (?, ?)`, postID, userID)
	if err != nil {
		return nil, sqliteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, unavailable(err)
	}
	return &models.Vote{ID: id, PostID: postID, UserID: userID}, nil
}

func (s *SQLiteStore) DeleteVote(ctx context.Context, postID, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM votes WHERE user_id = ? AND post_id = ?`, userID, postID)
	if err != nil {
		return sqliteErr(err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) CountVotes(ctx context.Context, postID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE post_id = ?`, postID).Scan(&n); err != nil {
		return 0, sqliteErr(err)
	}
	return n, nil
}

func (s *SQLiteStore) HasVoted(ctx context.Context, userID, postID int64) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE user_id = ? AND post_id = ?`, userID, postID).Scan(&n)
	if err != nil {
		return false, sqliteErr(err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) TopPostIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id, COUNT(*) AS number FROM votes
		GROUP BY post_id
		ORDER BY number DESC, post_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, sqliteErr(err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, sqliteErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr(err)
	}
	return ids, nil
}
