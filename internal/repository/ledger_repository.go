package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hooksink/internal/domain/event"
	hookerrors "hooksink/pkg/errors"
)

const defaultLimit = 20

type SQLiteLedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &SQLiteLedgerRepository{db: db}
}

func (r *SQLiteLedgerRepository) Exists(ctx context.Context, deliveryID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&event.Event{}).
		Where("delivery_id = ?", deliveryID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert relies on the unique index over delivery_id: ON CONFLICT DO NOTHING
// makes insert-or-skip a single atomic step, so two racing deliveries of the
// same id cannot both persist a row.
func (r *SQLiteLedgerRepository) Insert(ctx context.Context, e *event.Event) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "delivery_id"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SQLiteLedgerRepository) Recent(ctx context.Context, limit, offset int) ([]event.Event, error) {
	return r.query(ctx, r.db.WithContext(ctx).Model(&event.Event{}), limit, offset)
}

func (r *SQLiteLedgerRepository) RecentByType(ctx context.Context, eventType string, limit, offset int) ([]event.Event, error) {
	q := r.db.WithContext(ctx).
		Model(&event.Event{}).
		Where("event_type = ?", eventType)
	return r.query(ctx, q, limit, offset)
}

func (r *SQLiteLedgerRepository) query(ctx context.Context, q *gorm.DB, limit, offset int) ([]event.Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	var events []event.Event
	err := q.Order("received_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *SQLiteLedgerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&event.Event{}).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SQLiteLedgerRepository) Last(ctx context.Context) (event.Event, error) {
	var e event.Event
	err := r.db.WithContext(ctx).
		Order("received_at DESC, id DESC").
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return event.Event{}, hookerrors.ErrNotFound
		}
		return event.Event{}, err
	}
	return e, nil
}
