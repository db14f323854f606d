package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/groupbuy/backend/internal/domain/order"
	"github.com/groupbuy/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save persists a new order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	result := r.db.WithContext(ctx).
		Model(o).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]interface{}{
			"status":     o.Status,
			"ordered_at": o.OrderedAt,
			"version":    o.Version + 1,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	o.IncrementVersion()
	return nil
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByMember returns a member's orders, newest first
func (r *GormOrderRepository) FindByMember(ctx context.Context, memberID uuid.UUID, filter shared.Filter) (*shared.Paginated[order.Order], error) {
	return r.findPaginated(ctx, "member_id = ?", memberID, filter)
}

// FindByGroupBuy returns orders of a group buy matching the filter
func (r *GormOrderRepository) FindByGroupBuy(ctx context.Context, groupBuyID uuid.UUID, filter shared.Filter) (*shared.Paginated[order.Order], error) {
	return r.findPaginated(ctx, "group_buy_id = ?", groupBuyID, filter)
}

// SumOrderedQuantity returns the total units the member holds in ORDERED
// orders for the group buy
func (r *GormOrderRepository) SumOrderedQuantity(ctx context.Context, memberID, groupBuyID uuid.UUID) (int, error) {
	var total int
	if err := r.db.WithContext(ctx).
		Model(&order.OrderItem{}).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.member_id = ? AND orders.group_buy_id = ? AND orders.status = ?",
			memberID, groupBuyID, order.OrderStatusOrdered).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumOrderedQuantityByGroupBuy returns total ordered units per group buy
func (r *GormOrderRepository) SumOrderedQuantityByGroupBuy(ctx context.Context) (map[uuid.UUID]int, error) {
	var rows []struct {
		GroupBuyID uuid.UUID
		Total      int
	}
	if err := r.db.WithContext(ctx).
		Model(&order.OrderItem{}).
		Select("orders.group_buy_id AS group_buy_id, COALESCE(SUM(order_items.quantity), 0) AS total").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", order.OrderStatusOrdered).
		Group("orders.group_buy_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		totals[row.GroupBuyID] = row.Total
	}
	return totals, nil
}

func (r *GormOrderRepository) findPaginated(ctx context.Context, cond string, arg interface{}, filter shared.Filter) (*shared.Paginated[order.Order], error) {
	var total int64
	countQuery := r.applyFilterConditions(
		r.db.WithContext(ctx).Model(&order.Order{}).Where(cond, arg),
		filter,
	)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []order.Order
	query := r.applyFilterConditions(
		r.db.WithContext(ctx).Model(&order.Order{}).Preload("Items").Where(cond, arg),
		filter,
	)
	query = r.applyPagination(query, filter)
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// applyFilterConditions applies filter conditions without pagination
func (r *GormOrderRepository) applyFilterConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "group_buy_id":
			query = query.Where("group_buy_id = ?", value)
		}
	}
	return query
}

// applyPagination applies pagination and ordering
func (r *GormOrderRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
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

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
