// Package storage provides video metadata persistence and the object store
// wrapper used for uploaded assets.
package storage

import (
	"context"
	"fmt"

	"github.com/Esosek/tubely/internal/config"
	"github.com/Esosek/tubely/pkg/models"
)

// VideoStore is the metadata persistence contract consumed by the handlers.
type VideoStore interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, videoID string) (*models.Video, error)
	UpdateVideo(ctx context.Context, video *models.Video) error
	ListVideosByUser(ctx context.Context, userID string) ([]models.Video, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	Ping(ctx context.Context) error
	Close() error
}

// NewVideoStore constructs the VideoStore selected by configuration.
func NewVideoStore(ctx context.Context, cfg *config.Config) (VideoStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendSQLite:
		return NewSQLiteStore(cfg.Store.SQLitePath)
	case config.StoreBackendPostgres:
		return NewPostgresStore(cfg.Store.PostgresURL)
	case config.StoreBackendDynamoDB:
		return NewDynamoDBStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
