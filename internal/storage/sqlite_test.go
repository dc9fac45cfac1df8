package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Esosek/tubely/pkg/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tubely-test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testUser(t *testing.T, store *SQLiteStore) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "$2a$10$fakehash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func TestSQLiteVideoCRUD(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	user := testUser(t, store)

	now := time.Now().UTC().Truncate(time.Second)
	video := &models.Video{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Title:       "roundtrip",
		Description: "a description",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := store.CreateVideo(ctx, video); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}

	got, err := store.GetVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Title != video.Title || got.UserID != user.ID || got.Description != video.Description {
		t.Errorf("GetVideo() = %+v, want fields from %+v", got, video)
	}
	if got.ThumbnailURL != nil || got.VideoURL != nil {
		t.Error("fresh video has non-nil asset URLs")
	}

	videoURL := "https://bucket.s3.us-east-2.amazonaws.com/landscape/abc.mp4"
	got.VideoURL = &videoURL
	got.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if err := store.UpdateVideo(ctx, got); err != nil {
		t.Fatalf("UpdateVideo() error = %v", err)
	}

	updated, err := store.GetVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetVideo() after update error = %v", err)
	}
	if updated.VideoURL == nil || *updated.VideoURL != videoURL {
		t.Errorf("VideoURL = %v, want %q", updated.VideoURL, videoURL)
	}
}

func TestSQLiteVideoNotFound(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.GetVideo(ctx, uuid.New().String()); !errors.Is(err, models.ErrVideoNotFound) {
		t.Errorf("GetVideo() error = %v, want %v", err, models.ErrVideoNotFound)
	}

	missing := &models.Video{
		ID:        uuid.New().String(),
		Title:     "ghost",
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.UpdateVideo(ctx, missing); !errors.Is(err, models.ErrVideoNotFound) {
		t.Errorf("UpdateVideo() error = %v, want %v", err, models.ErrVideoNotFound)
	}
}

func TestSQLiteDuplicateVideo(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	user := testUser(t, store)

	now := time.Now().UTC()
	video := &models.Video{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Title:     "dup",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := store.CreateVideo(ctx, video); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}
	if err := store.CreateVideo(ctx, video); !errors.Is(err, models.ErrVideoExists) {
		t.Errorf("duplicate CreateVideo() error = %v, want %v", err, models.ErrVideoExists)
	}
}

func TestSQLiteListVideosByUser(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	user := testUser(t, store)
	other := testUser(t, store)

	base := time.Now().UTC().Truncate(time.Second)
	for i, title := range []string{"oldest", "middle", "newest"} {
		video := &models.Video{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Title:     title,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateVideo(ctx, video); err != nil {
			t.Fatalf("CreateVideo(%q) error = %v", title, err)
		}
	}

	videos, err := store.ListVideosByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListVideosByUser() error = %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("len(videos) = %d, want 3", len(videos))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if videos[i].Title != want {
			t.Errorf("videos[%d].Title = %q, want %q", i, videos[i].Title, want)
		}
	}

	otherVideos, err := store.ListVideosByUser(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListVideosByUser() for other user error = %v", err)
	}
	if len(otherVideos) != 0 {
		t.Errorf("other user sees %d videos, want 0", len(otherVideos))
	}
}

func TestSQLiteUsers(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != user.PasswordHash {
		t.Errorf("GetUserByEmail() = %+v, want %+v", got, user)
	}

	dup := &models.User{
		ID:           uuid.New().String(),
		Email:        "alice@example.com",
		PasswordHash: "other",
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, dup); !errors.Is(err, models.ErrUserExists) {
		t.Errorf("duplicate CreateUser() error = %v, want %v", err, models.ErrUserExists)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("GetUserByEmail() for unknown email error = %v, want %v", err, models.ErrUserNotFound)
	}
}

func TestSQLitePing(t *testing.T) {
	store := newTestSQLiteStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
