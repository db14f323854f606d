package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/shared"
)

// GormGroupBuyRepository implements groupbuy.Repository using GORM
type GormGroupBuyRepository struct {
	db *gorm.DB
}

// NewGormGroupBuyRepository creates a new GormGroupBuyRepository
func NewGormGroupBuyRepository(db *gorm.DB) *GormGroupBuyRepository {
	return &GormGroupBuyRepository{db: db}
}

// Save persists a new group buy together with its options
func (r *GormGroupBuyRepository) Save(ctx context.Context, gb *groupbuy.GroupBuy) error {
	return r.db.WithContext(ctx).Create(gb).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormGroupBuyRepository) SaveWithLock(ctx context.Context, gb *groupbuy.GroupBuy) error {
	result := r.db.WithContext(ctx).
		Model(gb).
		Where("id = ? AND version = ?", gb.ID, gb.Version).
		Updates(map[string]interface{}{
			"title":           gb.Title,
			"description":     gb.Description,
			"status":          gb.Status,
			"close_reason":    gb.CloseReason,
			"start_at":        gb.StartAt,
			"end_at":          gb.EndAt,
			"personal_limit":  gb.PersonalLimit,
			"discount_stages": gb.DiscountStages,
			"closed_at":       gb.ClosedAt,
			"version":         gb.Version + 1,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	gb.IncrementVersion()
	return nil
}

// FindByID loads a group buy with its options
func (r *GormGroupBuyRepository) FindByID(ctx context.Context, id uuid.UUID) (*groupbuy.GroupBuy, error) {
	var gb groupbuy.GroupBuy
	if err := r.db.WithContext(ctx).
		Preload("Options").
		First(&gb, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &gb, nil
}

// FindAll returns group buys matching the filter
func (r *GormGroupBuyRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[groupbuy.GroupBuy], error) {
	var total int64
	countQuery := r.applyFilterConditions(
		r.db.WithContext(ctx).Model(&groupbuy.GroupBuy{}),
		filter,
	)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []groupbuy.GroupBuy
	query := r.applyFilterConditions(
		r.db.WithContext(ctx).Model(&groupbuy.GroupBuy{}).Preload("Options"),
		filter,
	)
	query = r.applyPagination(query, filter)
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindExpiredOpen returns open group buys whose end time has passed
func (r *GormGroupBuyRepository) FindExpiredOpen(ctx context.Context, now time.Time, limit int) ([]groupbuy.GroupBuy, error) {
	var items []groupbuy.GroupBuy
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_at <= ?", groupbuy.GroupBuyStatusOpen, now).
		Order("end_at ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementOrderCount atomically adds delta units to the order count and
// returns the new total
func (r *GormGroupBuyRepository) IncrementOrderCount(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var newCount int
	result := r.db.WithContext(ctx).Raw(
		"UPDATE group_buys SET order_count = order_count + ?, updated_at = ? WHERE id = ? RETURNING order_count",
		delta, time.Now(), id,
	).Scan(&newCount)

	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}
	return newCount, nil
}

// OrderCounts returns the order count per group buy id for the given status
func (r *GormGroupBuyRepository) OrderCounts(ctx context.Context, status groupbuy.GroupBuyStatus) (map[uuid.UUID]int, error) {
	var rows []struct {
		ID         uuid.UUID
		OrderCount int
	}
	if err := r.db.WithContext(ctx).
		Model(&groupbuy.GroupBuy{}).
		Select("id, order_count").
		Where("status = ?", status).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.OrderCount
	}
	return counts, nil
}

// applyFilterConditions applies filter conditions without pagination
func (r *GormGroupBuyRepository) applyFilterConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "seller_id":
			query = query.Where("seller_id = ?", value)
		case "open_at":
			if at, ok := value.(time.Time); ok {
				query = query.Where("status = ? AND start_at <= ? AND end_at > ?",
					groupbuy.GroupBuyStatusOpen, at, at)
			}
		}
	}
	return query
}

// applyPagination applies pagination and ordering
func (r *GormGroupBuyRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormGroupBuyRepository implements groupbuy.Repository
var _ groupbuy.Repository = (*GormGroupBuyRepository)(nil)
