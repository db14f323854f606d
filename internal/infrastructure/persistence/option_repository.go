package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/shared"
)

// GormOptionRepository implements groupbuy.OptionRepository using GORM.
// Stock movements are conditional single-statement updates so concurrent
// reservations can never drive stock below zero.
type GormOptionRepository struct {
	db *gorm.DB
}

// NewGormOptionRepository creates a new GormOptionRepository
func NewGormOptionRepository(db *gorm.DB) *GormOptionRepository {
	return &GormOptionRepository{db: db}
}

// DecrementStock atomically subtracts quantity if enough stock remains and
// returns the remaining stock after the decrement
func (r *GormOptionRepository) DecrementStock(ctx context.Context, optionID uuid.UUID, quantity int) (int, error) {
	var remaining int
	result := r.db.WithContext(ctx).Raw(
		"UPDATE group_buy_options SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ? RETURNING stock",
		quantity, time.Now(), optionID, quantity,
	).Scan(&remaining)

	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		// The condition failed: either the option is unknown or the
		// remaining stock cannot cover the request.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&groupbuy.GroupBuyOption{}).
			Where("id = ?", optionID).
			Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, shared.ErrNotFound
		}
		return 0, shared.ErrInsufficientStock
	}
	return remaining, nil
}

// IncrementStock atomically returns quantity to the pool, capped at the
// option's initial stock
func (r *GormOptionRepository) IncrementStock(ctx context.Context, optionID uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&groupbuy.GroupBuyOption{}).
		Where("id = ?", optionID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("CASE WHEN stock + ? > initial_stock THEN initial_stock ELSE stock + ? END", quantity, quantity),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AvailableStock reads the current stock level
func (r *GormOptionRepository) AvailableStock(ctx context.Context, optionID uuid.UUID) (int, error) {
	var stock int
	result := r.db.WithContext(ctx).
		Model(&groupbuy.GroupBuyOption{}).
		Select("stock").
		Where("id = ?", optionID).
		Scan(&stock)

	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}
	return stock, nil
}

// FindByID loads a single option
func (r *GormOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*groupbuy.GroupBuyOption, error) {
	var option groupbuy.GroupBuyOption
	if err := r.db.WithContext(ctx).First(&option, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &option, nil
}

// FindByGroupBuyID loads all options of a group buy
func (r *GormOptionRepository) FindByGroupBuyID(ctx context.Context, groupBuyID uuid.UUID) ([]groupbuy.GroupBuyOption, error) {
	var options []groupbuy.GroupBuyOption
	if err := r.db.WithContext(ctx).
		Where("group_buy_id = ?", groupBuyID).
		Order("created_at ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

// UpdateSalePrices writes the recalculated sale prices of the options
func (r *GormOptionRepository) UpdateSalePrices(ctx context.Context, options []groupbuy.GroupBuyOption) error {
	now := time.Now()
	for i := range options {
		if err := r.db.WithContext(ctx).
			Model(&groupbuy.GroupBuyOption{}).
			Where("id = ?", options[i].ID).
			Updates(map[string]interface{}{
				"sale_price": options[i].SalePrice,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormOptionRepository implements groupbuy.OptionRepository
var _ groupbuy.OptionRepository = (*GormOptionRepository)(nil)
