package groupbuy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupbuy/backend/internal/domain/shared"
	"github.com/groupbuy/backend/internal/domain/shared/valueobject"
)

func newTestGroupBuy(t *testing.T) *GroupBuy {
	t.Helper()
	now := time.Now()
	gb, err := NewGroupBuy(uuid.New(), "Jeju Tangerines 5kg", "Direct from farm",
		now, now.Add(72*time.Hour), 5, stages(t))
	require.NoError(t, err)
	return gb
}

func TestNewGroupBuy(t *testing.T) {
	t.Run("creates in draft status", func(t *testing.T) {
		gb := newTestGroupBuy(t)
		assert.Equal(t, GroupBuyStatusDraft, gb.Status)
		assert.Equal(t, 0, gb.OrderCount)
		assert.NotEqual(t, uuid.Nil, gb.ID)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		now := time.Now()
		_, err := NewGroupBuy(uuid.New(), "", "", now, now.Add(time.Hour), 0, nil)
		assert.Error(t, err)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		now := time.Now()
		_, err := NewGroupBuy(uuid.New(), "title", "", now, now.Add(-time.Hour), 0, nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative personal limit", func(t *testing.T) {
		now := time.Now()
		_, err := NewGroupBuy(uuid.New(), "title", "", now, now.Add(time.Hour), -1, nil)
		assert.Error(t, err)
	})

	t.Run("sorts discount stages", func(t *testing.T) {
		now := time.Now()
		unsorted := DiscountStages{
			{Threshold: 50, Rate: decimal.NewFromFloat(0.10)},
			{Threshold: 10, Rate: decimal.NewFromFloat(0.05)},
		}
		gb, err := NewGroupBuy(uuid.New(), "title", "", now, now.Add(time.Hour), 0, unsorted)
		require.NoError(t, err)
		assert.Equal(t, 10, gb.DiscountStages[0].Threshold)
	})
}

func TestGroupBuyStatusTransitions(t *testing.T) {
	assert.True(t, GroupBuyStatusDraft.CanTransitionTo(GroupBuyStatusOpen))
	assert.True(t, GroupBuyStatusOpen.CanTransitionTo(GroupBuyStatusClosed))
	assert.False(t, GroupBuyStatusDraft.CanTransitionTo(GroupBuyStatusClosed))
	assert.False(t, GroupBuyStatusClosed.CanTransitionTo(GroupBuyStatusOpen))
	assert.False(t, GroupBuyStatusOpen.CanTransitionTo(GroupBuyStatusDraft))
}

func TestGroupBuyPublish(t *testing.T) {
	t.Run("publish with options", func(t *testing.T) {
		gb := newTestGroupBuy(t)
		_, err := gb.AddOption("Box of 10", 100, valueobject.NewMoneyKRWFromInt(25000))
		require.NoError(t, err)

		require.NoError(t, gb.Publish())
		assert.Equal(t, GroupBuyStatusOpen, gb.Status)

		events := gb.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeGroupBuyOpened, events[0].EventType())
	})

	t.Run("publish without options fails", func(t *testing.T) {
		gb := newTestGroupBuy(t)
		err := gb.Publish()
		assert.Error(t, err)
		assert.Equal(t, GroupBuyStatusDraft, gb.Status)
	})

	t.Run("publish twice fails", func(t *testing.T) {
		gb := newTestGroupBuy(t)
		_, err := gb.AddOption("Box", 10, valueobject.NewMoneyKRWFromInt(1000))
		require.NoError(t, err)
		require.NoError(t, gb.Publish())
		assert.Error(t, gb.Publish())
	})
}

func TestGroupBuyClose(t *testing.T) {
	open := func(t *testing.T) *GroupBuy {
		gb := newTestGroupBuy(t)
		_, err := gb.AddOption("Box", 10, valueobject.NewMoneyKRWFromInt(1000))
		require.NoError(t, err)
		require.NoError(t, gb.Publish())
		gb.ClearDomainEvents()
		return gb
	}

	t.Run("close from open", func(t *testing.T) {
		gb := open(t)
		now := time.Now()
		require.NoError(t, gb.Close(CloseReasonSeller, now))
		assert.Equal(t, GroupBuyStatusClosed, gb.Status)
		assert.Equal(t, CloseReasonSeller, gb.CloseReason)
		require.NotNil(t, gb.ClosedAt)

		events := gb.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeGroupBuyClosed, events[0].EventType())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		gb := open(t)
		require.NoError(t, gb.Close(CloseReasonExpired, time.Now()))
		gb.ClearDomainEvents()

		require.NoError(t, gb.Close(CloseReasonSeller, time.Now()))
		assert.Equal(t, CloseReasonExpired, gb.CloseReason)
		assert.Empty(t, gb.GetDomainEvents())
	})

	t.Run("close from draft fails", func(t *testing.T) {
		gb := newTestGroupBuy(t)
		assert.Error(t, gb.Close(CloseReasonSeller, time.Now()))
	})
}

func TestGroupBuyAddOption(t *testing.T) {
	t.Run("rejected after publish", func(t *testing.T) {
		gb := newTestGroupBuy(t)
		_, err := gb.AddOption("Box", 10, valueobject.NewMoneyKRWFromInt(1000))
		require.NoError(t, err)
		require.NoError(t, gb.Publish())

		_, err = gb.AddOption("Another", 10, valueobject.NewMoneyKRWFromInt(1000))
		assert.Error(t, err)
	})

	t.Run("rejects zero stock", func(t *testing.T) {
		gb := newTestGroupBuy(t)
		_, err := gb.AddOption("Box", 0, valueobject.NewMoneyKRWFromInt(1000))
		assert.Error(t, err)
	})
}

func TestGroupBuyIsOpenAt(t *testing.T) {
	gb := newTestGroupBuy(t)
	_, err := gb.AddOption("Box", 10, valueobject.NewMoneyKRWFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, gb.Publish())

	assert.True(t, gb.IsOpenAt(gb.StartAt.Add(time.Hour)))
	assert.False(t, gb.IsOpenAt(gb.StartAt.Add(-time.Minute)))
	assert.False(t, gb.IsOpenAt(gb.EndAt))
	assert.True(t, gb.IsExpiredAt(gb.EndAt))
	assert.False(t, gb.IsExpiredAt(gb.EndAt.Add(-time.Minute)))
}

func TestGroupBuyRecalculateSalePrices(t *testing.T) {
	gb := newTestGroupBuy(t)
	_, err := gb.AddOption("Box", 200, valueobject.NewMoneyKRWFromInt(10000))
	require.NoError(t, err)

	gb.OrderCount = 50 // unlocks the 10% stage
	gb.RecalculateSalePrices()

	assert.True(t, gb.Options[0].SalePrice.Equals(valueobject.NewMoneyKRWFromInt(9000)),
		"sale price should be 9000, got %s", gb.Options[0].SalePrice)
	assert.True(t, gb.Options[0].StartPrice.Equals(valueobject.NewMoneyKRWFromInt(10000)))
}

func TestGroupBuyAllOptionsDepleted(t *testing.T) {
	gb := newTestGroupBuy(t)
	_, err := gb.AddOption("A", 10, valueobject.NewMoneyKRWFromInt(1000))
	require.NoError(t, err)
	_, err = gb.AddOption("B", 5, valueobject.NewMoneyKRWFromInt(2000))
	require.NoError(t, err)

	assert.False(t, gb.AllOptionsDepleted())

	gb.Options[0].Stock = 0
	assert.False(t, gb.AllOptionsDepleted())

	gb.Options[1].Stock = 0
	assert.True(t, gb.AllOptionsDepleted())

	t.Run("no options loaded", func(t *testing.T) {
		empty := newTestGroupBuy(t)
		assert.False(t, empty.AllOptionsDepleted())
	})
}

func TestGroupBuyRemainingForMember(t *testing.T) {
	gb := newTestGroupBuy(t) // personal limit 5

	assert.Equal(t, 5, gb.RemainingForMember(0))
	assert.Equal(t, 2, gb.RemainingForMember(3))
	assert.Equal(t, 0, gb.RemainingForMember(5))
	assert.Equal(t, 0, gb.RemainingForMember(7))

	t.Run("zero limit means unlimited", func(t *testing.T) {
		now := time.Now()
		unlimited, err := NewGroupBuy(uuid.New(), "title", "", now, now.Add(time.Hour), 0, nil)
		require.NoError(t, err)
		assert.Greater(t, unlimited.RemainingForMember(1000000), 1000000)
	})
}

func TestGroupBuyOptionSold(t *testing.T) {
	opt, err := NewGroupBuyOption(uuid.New(), "Box", 100, valueobject.NewMoneyKRWFromInt(1000))
	require.NoError(t, err)

	assert.Equal(t, 0, opt.Sold())
	assert.False(t, opt.IsDepleted())

	opt.Stock = 30
	assert.Equal(t, 70, opt.Sold())

	opt.Stock = 0
	assert.True(t, opt.IsDepleted())
}

func TestGroupBuyOptionApplyDiscountRate(t *testing.T) {
	opt, err := NewGroupBuyOption(uuid.New(), "Box", 100, valueobject.NewMoneyKRWFromInt(33333))
	require.NoError(t, err)

	opt.ApplyDiscountRate(decimal.NewFromFloat(0.1))
	// 33333 * 0.9 = 29999.7, floored to whole won
	assert.True(t, opt.SalePrice.Equals(valueobject.NewMoneyKRWFromInt(29999)))
}

func TestGroupBuyDomainErrorCodes(t *testing.T) {
	now := time.Now()
	_, err := NewGroupBuy(uuid.New(), "", "", now, now.Add(time.Hour), 0, nil)
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, "INVALID_GROUP_BUY"))
}
