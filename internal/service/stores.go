package service

import (
	"context"

	"taskmail/internal/models"
)

// UserStore is the credential store the services depend on. Implemented by
// repository.Users (Postgres) and repository.MemoryUsers (tests). Lookups
// return nil, not an error, when no row matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailWithHash(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	ListBasic(ctx context.Context) ([]models.BasicUser, error)
}

// ItemStore is the item store the item service depends on. Implemented by
// repository.Items and repository.MemoryItems.
type ItemStore interface {
	ListByFolder(ctx context.Context, ownerID string, folder models.Folder) ([]models.Item, error)
	ListStarred(ctx context.Context, ownerID string) ([]models.Item, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	Insert(ctx context.Context, it *models.Item) error
	InsertPair(ctx context.Context, inbox, sent *models.Item) error
	Save(ctx context.Context, it *models.Item) error
	Delete(ctx context.Context, id string) error
	DeleteBulk(ctx context.Context, ownerID string, ids []string) (int64, error)
	DeleteCompleted(ctx context.Context, ownerID string) (int64, error)
	Counts(ctx context.Context, ownerID string) (total, completed int, err error)
}

// EventPublisher receives item activity events after successful mutations.
// May be nil on the service; publishing is fire-and-forget.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.ItemEvent)
}
