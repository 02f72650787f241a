package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reservas-backend/internal/model"
)

// SubscriptionStore persists staff push subscriptions. The table is owned by
// this service and migrated at startup.
type SubscriptionStore interface {
	Put(ctx context.Context, sub model.PushSubscription) error
	Get(ctx context.Context, endpoint string) (model.PushSubscription, error)
	List(ctx context.Context) ([]model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

type gormSubscriptionStore struct {
	db *gorm.DB
}

// NewSubscriptionStore creates a GORM-backed subscription store.
func NewSubscriptionStore(db *gorm.DB) SubscriptionStore {
	return &gormSubscriptionStore{db: db}
}

func (s *gormSubscriptionStore) Put(ctx context.Context, sub model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "label"}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *gormSubscriptionStore) Get(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub, ErrSubscriptionNotFound
	}
	return sub, err
}

func (s *gormSubscriptionStore) List(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Order("created_at").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *gormSubscriptionStore) Delete(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}
