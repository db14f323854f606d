package groupbuy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
)

// CreateGroupBuyRequest creates a draft group buy with its options
type CreateGroupBuyRequest struct {
	SellerID       uuid.UUID            `json:"seller_id" binding:"required"`
	Title          string               `json:"title" binding:"required,max=200"`
	Description    string               `json:"description" binding:"max=2000"`
	StartAt        time.Time            `json:"start_at" binding:"required"`
	EndAt          time.Time            `json:"end_at" binding:"required"`
	PersonalLimit  int                  `json:"personal_limit" binding:"min=0"`
	DiscountStages []DiscountStageInput `json:"discount_stages" binding:"dive"`
	Options        []CreateOptionInput  `json:"options" binding:"required,min=1,dive"`
}

// DiscountStageInput is one tier of the discount ladder
type DiscountStageInput struct {
	Threshold int             `json:"threshold" binding:"required,min=1"`
	Rate      decimal.Decimal `json:"rate" binding:"required,discount_rate"`
}

// CreateOptionInput is one purchasable option of the group buy
type CreateOptionInput struct {
	Name         string          `json:"name" binding:"required,max=100"`
	InitialStock int             `json:"initial_stock" binding:"required,min=1"`
	StartPrice   decimal.Decimal `json:"start_price" binding:"required"`
}

// OptionResponse represents an option in API responses
type OptionResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	InitialStock int       `json:"initial_stock"`
	Stock        int       `json:"stock"`
	Sold         int       `json:"sold"`
	StartPrice   string    `json:"start_price"`
	SalePrice    string    `json:"sale_price"`
}

// GroupBuyResponse represents a group buy in API responses
type GroupBuyResponse struct {
	ID             uuid.UUID               `json:"id"`
	SellerID       uuid.UUID               `json:"seller_id"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Status         string                  `json:"status"`
	CloseReason    string                  `json:"close_reason,omitempty"`
	StartAt        time.Time               `json:"start_at"`
	EndAt          time.Time               `json:"end_at"`
	PersonalLimit  int                     `json:"personal_limit"`
	OrderCount     int                     `json:"order_count"`
	DiscountStages groupbuy.DiscountStages `json:"discount_stages"`
	CurrentRate    string                  `json:"current_rate"`
	Options        []OptionResponse        `json:"options"`
	ClosedAt       *time.Time              `json:"closed_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	Version        int                     `json:"version"`
}

// ToGroupBuyResponse converts a group buy aggregate to its API representation
func ToGroupBuyResponse(gb *groupbuy.GroupBuy) GroupBuyResponse {
	options := make([]OptionResponse, 0, len(gb.Options))
	for i := range gb.Options {
		opt := &gb.Options[i]
		options = append(options, OptionResponse{
			ID:           opt.ID,
			Name:         opt.Name,
			InitialStock: opt.InitialStock,
			Stock:        opt.Stock,
			Sold:         opt.Sold(),
			StartPrice:   opt.StartPrice.Amount().String(),
			SalePrice:    opt.SalePrice.Amount().String(),
		})
	}
	return GroupBuyResponse{
		ID:             gb.ID,
		SellerID:       gb.SellerID,
		Title:          gb.Title,
		Description:    gb.Description,
		Status:         string(gb.Status),
		CloseReason:    string(gb.CloseReason),
		StartAt:        gb.StartAt,
		EndAt:          gb.EndAt,
		PersonalLimit:  gb.PersonalLimit,
		OrderCount:     gb.OrderCount,
		DiscountStages: gb.DiscountStages,
		CurrentRate:    gb.CurrentDiscountRate().String(),
		Options:        options,
		ClosedAt:       gb.ClosedAt,
		CreatedAt:      gb.CreatedAt,
		Version:        gb.Version,
	}
}

// ListFilter represents filter options for group buy lists
type ListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT OPEN CLOSED"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
