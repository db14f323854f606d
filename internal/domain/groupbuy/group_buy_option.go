package groupbuy

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/groupbuy/backend/internal/domain/shared"
	"github.com/groupbuy/backend/internal/domain/shared/valueobject"
)

// GroupBuyOption is a purchasable variant of a group buy with its own
// stock pool and pricing. Stock never goes below zero and never exceeds
// InitialStock.
type GroupBuyOption struct {
	shared.BaseEntity
	GroupBuyID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"group_buy_id"`
	Name         string            `gorm:"not null" json:"name"`
	InitialStock int               `gorm:"not null" json:"initial_stock"`
	Stock        int               `gorm:"not null" json:"stock"`
	StartPrice   valueobject.Money `gorm:"type:decimal(15,0)" json:"start_price"`
	SalePrice    valueobject.Money `gorm:"type:decimal(15,0)" json:"sale_price"`
}

// TableName specifies the table name for GORM
func (GroupBuyOption) TableName() string {
	return "group_buy_options"
}

// NewGroupBuyOption creates an option with its full initial stock available.
// The sale price starts equal to the start price until a discount tier unlocks.
func NewGroupBuyOption(groupBuyID uuid.UUID, name string, initialStock int, startPrice valueobject.Money) (*GroupBuyOption, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_OPTION", "option name cannot be empty")
	}
	if initialStock <= 0 {
		return nil, shared.NewDomainError("INVALID_OPTION", "initial stock must be positive")
	}
	if startPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_OPTION", "start price cannot be negative")
	}
	return &GroupBuyOption{
		BaseEntity:   shared.NewBaseEntity(),
		GroupBuyID:   groupBuyID,
		Name:         name,
		InitialStock: initialStock,
		Stock:        initialStock,
		StartPrice:   startPrice,
		SalePrice:    startPrice,
	}, nil
}

// Sold returns the number of units taken from this option's pool.
func (o *GroupBuyOption) Sold() int {
	return o.InitialStock - o.Stock
}

// IsDepleted returns true when no stock remains.
func (o *GroupBuyOption) IsDepleted() bool {
	return o.Stock <= 0
}

// ApplyDiscountRate recomputes the sale price from the start price and the
// given discount rate. Rates only ever increase, so the sale price is
// monotonically non-increasing over a group buy's life.
func (o *GroupBuyOption) ApplyDiscountRate(rate decimal.Decimal) {
	o.SalePrice = o.StartPrice.ApplyDiscountRate(rate)
}
