package groupbuy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/groupbuy/backend/internal/domain/shared"
	"github.com/groupbuy/backend/internal/domain/shared/valueobject"
)

// GroupBuyStatus represents the lifecycle state of a group buy
type GroupBuyStatus string

const (
	GroupBuyStatusDraft  GroupBuyStatus = "DRAFT"
	GroupBuyStatusOpen   GroupBuyStatus = "OPEN"
	GroupBuyStatusClosed GroupBuyStatus = "CLOSED"
)

// CanTransitionTo checks whether a status transition is allowed.
// The lifecycle is strictly forward: DRAFT -> OPEN -> CLOSED.
func (s GroupBuyStatus) CanTransitionTo(target GroupBuyStatus) bool {
	switch s {
	case GroupBuyStatusDraft:
		return target == GroupBuyStatusOpen
	case GroupBuyStatusOpen:
		return target == GroupBuyStatusClosed
	default:
		return false
	}
}

// CloseReason records why a group buy was closed
type CloseReason string

const (
	CloseReasonSeller        CloseReason = "SELLER"
	CloseReasonStockDepleted CloseReason = "STOCK_DEPLETED"
	CloseReasonExpired       CloseReason = "EXPIRED"
)

// GroupBuy is the aggregate root for a time-boxed group purchase campaign.
// OrderCount tracks the total quantity of units in ORDERED orders; it drives
// both the discount tier and the ranking.
type GroupBuy struct {
	shared.BaseAggregateRoot
	SellerID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"seller_id"`
	Title          string           `gorm:"not null" json:"title"`
	Description    string           `json:"description"`
	Status         GroupBuyStatus   `gorm:"not null;default:DRAFT;index" json:"status"`
	CloseReason    CloseReason      `json:"close_reason,omitempty"`
	StartAt        time.Time        `gorm:"not null" json:"start_at"`
	EndAt          time.Time        `gorm:"not null;index" json:"end_at"`
	PersonalLimit  int              `gorm:"not null;default:0" json:"personal_limit"`
	OrderCount     int              `gorm:"not null;default:0" json:"order_count"`
	DiscountStages DiscountStages   `gorm:"type:jsonb" json:"discount_stages"`
	Options        []GroupBuyOption `gorm:"foreignKey:GroupBuyID" json:"options,omitempty"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (GroupBuy) TableName() string {
	return "group_buys"
}

// NewGroupBuy creates a group buy in DRAFT status. Options are added
// separately before publishing.
func NewGroupBuy(sellerID uuid.UUID, title, description string, startAt, endAt time.Time, personalLimit int, stages DiscountStages) (*GroupBuy, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_GROUP_BUY", "title cannot be empty")
	}
	if !endAt.After(startAt) {
		return nil, shared.NewDomainError("INVALID_GROUP_BUY", "end time must be after start time")
	}
	if personalLimit < 0 {
		return nil, shared.NewDomainError("INVALID_GROUP_BUY", "personal limit cannot be negative")
	}
	sorted := stages.Sorted()
	if err := sorted.Validate(); err != nil {
		return nil, err
	}
	return &GroupBuy{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SellerID:          sellerID,
		Title:             title,
		Description:       description,
		Status:            GroupBuyStatusDraft,
		StartAt:           startAt,
		EndAt:             endAt,
		PersonalLimit:     personalLimit,
		DiscountStages:    sorted,
	}, nil
}

// AddOption attaches a new option. Only allowed while in DRAFT.
func (g *GroupBuy) AddOption(name string, initialStock int, startPrice valueobject.Money) (*GroupBuyOption, error) {
	if g.Status != GroupBuyStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "options can only be added to a draft group buy")
	}
	option, err := NewGroupBuyOption(g.ID, name, initialStock, startPrice)
	if err != nil {
		return nil, err
	}
	g.Options = append(g.Options, *option)
	return option, nil
}

// Publish transitions DRAFT -> OPEN. A group buy needs at least one option
// before it can open for admission.
func (g *GroupBuy) Publish() error {
	if !g.Status.CanTransitionTo(GroupBuyStatusOpen) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"group buy can only be published from draft status")
	}
	if len(g.Options) == 0 {
		return shared.NewDomainError("INVALID_STATE", "group buy must have at least one option")
	}
	g.Status = GroupBuyStatusOpen
	g.AddDomainEvent(NewGroupBuyOpenedEvent(g.ID, g.SellerID, g.EndAt))
	return nil
}

// Close transitions OPEN -> CLOSED with the given reason. Closing an
// already-closed group buy is a no-op so concurrent closers converge.
func (g *GroupBuy) Close(reason CloseReason, now time.Time) error {
	if g.Status == GroupBuyStatusClosed {
		return nil
	}
	if !g.Status.CanTransitionTo(GroupBuyStatusClosed) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"group buy can only be closed from open status")
	}
	g.Status = GroupBuyStatusClosed
	g.CloseReason = reason
	g.ClosedAt = &now
	g.AddDomainEvent(NewGroupBuyClosedEvent(g.ID, g.SellerID, string(reason), g.OrderCount))
	return nil
}

// IsOpenAt reports whether the group buy accepts orders at the given time.
func (g *GroupBuy) IsOpenAt(now time.Time) bool {
	return g.Status == GroupBuyStatusOpen && !now.Before(g.StartAt) && now.Before(g.EndAt)
}

// IsExpiredAt reports whether an open group buy has passed its end time.
func (g *GroupBuy) IsExpiredAt(now time.Time) bool {
	return g.Status == GroupBuyStatusOpen && !now.Before(g.EndAt)
}

// CurrentDiscountRate returns the discount rate unlocked by the current
// order count.
func (g *GroupBuy) CurrentDiscountRate() decimal.Decimal {
	return g.DiscountStages.RateFor(g.OrderCount)
}

// RecalculateSalePrices applies the current discount rate to every option.
func (g *GroupBuy) RecalculateSalePrices() {
	rate := g.CurrentDiscountRate()
	for i := range g.Options {
		g.Options[i].ApplyDiscountRate(rate)
	}
}

// AllOptionsDepleted reports whether every option's stock pool is empty.
// False for a group buy with no loaded options.
func (g *GroupBuy) AllOptionsDepleted() bool {
	if len(g.Options) == 0 {
		return false
	}
	for i := range g.Options {
		if !g.Options[i].IsDepleted() {
			return false
		}
	}
	return true
}

// RemainingForMember returns how many more units the member may order given
// the quantity they already hold in ORDERED orders. A zero personal limit
// means unlimited.
func (g *GroupBuy) RemainingForMember(alreadyOrdered int) int {
	if g.PersonalLimit == 0 {
		return int(^uint(0) >> 1)
	}
	remaining := g.PersonalLimit - alreadyOrdered
	if remaining < 0 {
		return 0
	}
	return remaining
}
