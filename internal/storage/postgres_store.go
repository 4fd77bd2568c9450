package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apodboard/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		is_banned BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id SERIAL PRIMARY KEY,
		admin_user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		query_string TEXT NOT NULL UNIQUE,
		explanation TEXT NOT NULL DEFAULT '',
		img_url TEXT NOT NULL DEFAULT '',
		apod_date TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id SERIAL PRIMARY KEY,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE (user_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_post_id ON votes(post_id)`,
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a bounded pool and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply postgres schema: %w", err)
		}
	}

	log.Printf("Postgres connected: max_conns=%d", cfg.MaxConns)
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func pgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return unavailable(err)
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	u := &models.User{Email: email, PasswordHash: passwordHash}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password, is_banned) VALUES ($1, $2, false) RETURNING id`,
		email, passwordHash,
	).Scan(&u.ID)
	if err != nil {
		return nil, pgErr(err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password, is_banned FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsBanned)
	if err != nil {
		return nil, pgErr(err)
	}
	return &u, nil
}

func (s *PostgresStore) SetUserBanned(ctx context.Context, email string, banned bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_banned = $1 WHERE email = $2`, banned, email)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Admins

func (s *PostgresStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE admin_user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, pgErr(err)
	}
	return exists, nil
}

func (s *PostgresStore) AddAdmin(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admins (admin_user_id) VALUES ($1) ON CONFLICT (admin_user_id) DO NOTHING`, userID)
	return pgErr(err)
}

func (s *PostgresStore) RemoveAdmin(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM admins WHERE admin_user_id = $1`, userID)
	return pgErr(err)
}

// Posts

const pgPostColumns = `id, title, query_string, explanation, img_url, apod_date`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.Title, &p.QueryString, &p.Explanation, &p.ImgURL, &p.ApodDate); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, req *models.CreatePostRequest) (*models.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx,
		`INSERT INTO posts (title, query_string, explanation, img_url, apod_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+pgPostColumns,
		req.Title, req.QueryString, req.Explanation, req.ImgURL, req.ApodDate,
	))
	if err != nil {
		return nil, pgErr(err)
	}
	return p, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `SELECT `+pgPostColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		return nil, pgErr(err)
	}
	return p, nil
}

func (s *PostgresStore) GetPostByQueryString(ctx context.Context, queryString string) (*models.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx,
		`SELECT `+pgPostColumns+` FROM posts WHERE query_string = $1`, queryString))
	if err != nil {
		return nil, pgErr(err)
	}
	return p, nil
}

func (s *PostgresStore) queryPosts(ctx context.Context, sql string, args ...any) ([]models.Post, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, pgErr(err)
	}
	defer rows.Close()

	out := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, pgErr(err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr(err)
	}
	return out, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.queryPosts(ctx, `SELECT `+pgPostColumns+` FROM posts ORDER BY id`)
}

func (s *PostgresStore) ListPostsVotedByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.queryPosts(ctx,
		`SELECT p.id, p.title, p.query_string, p.explanation, p.img_url, p.apod_date
		FROM posts p
		INNER JOIN votes v ON v.post_id = p.id
		WHERE v.user_id = $1
		ORDER BY p.id`, userID)
}

func (s *PostgresStore) UpdatePost(ctx context.Context, req *models.UpdatePostRequest) (*models.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx,
		`UPDATE posts
		SET title = $1, query_string = $2, explanation = $3, img_url = $4, apod_date = $5
		WHERE id = $6
		RETURNING `+pgPostColumns,
		req.Title, req.QueryString, req.Explanation, req.ImgURL, req.ApodDate, req.ID,
	))
	if err != nil {
		return nil, pgErr(err)
	}
	return p, nil
}

func (s *PostgresStore) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Votes

func (s *PostgresStore) CreateVote(ctx context.Context, postID, userID int64) (*models.Vote, error) {
	v := &models.Vote{PostID: postID, UserID: userID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO votes (post_id, user_id) VALUES ($1, $2) RETURNING id`, postID, userID,
	).Scan(&v.ID)
	if err != nil {
		return nil, pgErr(err)
	}
	return v, nil
}

func (s *PostgresStore) DeleteVote(ctx context.Context, postID, userID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM votes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountVotes(ctx context.Context, postID int64) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM votes WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, pgErr(err)
	}
	return n, nil
}

func (s *PostgresStore) HasVoted(ctx context.Context, userID, postID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM votes WHERE user_id = $1 AND post_id = $2)`, userID, postID,
	).Scan(&exists)
	if err != nil {
		return false, pgErr(err)
	}
	return exists, nil
}

func (s *PostgresStore) TopPostIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT post_id, COUNT(*) AS number FROM votes
		GROUP BY post_id
		ORDER BY number DESC, post_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, pgErr(err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, pgErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr(err)
	}
	return ids, nil
}
