package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/Esosek/tubely/pkg/models"
)

// SQLiteStore persists video and user records in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ VideoStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT,
			video_url TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_videos_user_id ON videos(user_id);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateVideo inserts a new video record.
func (s *SQLiteStore) CreateVideo(ctx context.Context, video *models.Video) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID, video.UserID, video.Title, video.Description,
		video.ThumbnailURL, video.VideoURL, video.CreatedAt, video.UpdatedAt,
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return models.ErrVideoExists
		}
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

// GetVideo retrieves a video record by ID.
func (s *SQLiteStore) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at
		FROM videos WHERE id = ?`, videoID)

	var v models.Video
	err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.Description,
		&v.ThumbnailURL, &v.VideoURL, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return &v, nil
}

// UpdateVideo updates the mutable fields of a video record. The owning user
// is never changed.
func (s *SQLiteStore) UpdateVideo(ctx context.Context, video *models.Video) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE videos
		SET title = ?, description = ?, thumbnail_url = ?, video_url = ?, updated_at = ?
		WHERE id = ?`,
		video.Title, video.Description, video.ThumbnailURL, video.VideoURL,
		video.UpdatedAt, video.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	if affected == 0 {
		return models.ErrVideoNotFound
	}

	return nil
}

// ListVideosByUser returns the user's videos, newest first.
func (s *SQLiteStore) ListVideosByUser(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at
		FROM videos WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.UserID, &v.Title, &v.Description,
			&v.ThumbnailURL, &v.VideoURL, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}

	return videos, rows.Err()
}

// CreateUser inserts a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return models.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user record by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
