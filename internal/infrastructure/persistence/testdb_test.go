package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/order"
	"github.com/groupbuy/backend/internal/domain/shared/valueobject"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&groupbuy.GroupBuy{},
		&groupbuy.GroupBuyOption{},
		&order.Order{},
		&order.OrderItem{},
	)
	require.NoError(t, err)

	return db
}

func testStages() groupbuy.DiscountStages {
	return groupbuy.DiscountStages{
		{Threshold: 10, Rate: decimal.NewFromFloat(0.05)},
		{Threshold: 50, Rate: decimal.NewFromFloat(0.10)},
	}
}

// seedOpenGroupBuy persists an OPEN group buy with one option of the given
// stock and a 10000 KRW start price, returning the reloaded aggregate.
func seedOpenGroupBuy(t *testing.T, db *gorm.DB, stock int) *groupbuy.GroupBuy {
	t.Helper()

	gb, err := groupbuy.NewGroupBuy(
		uuid.New(), "Fresh Mango Box", "Direct from the farm",
		time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour),
		0, testStages(),
	)
	require.NoError(t, err)

	_, err = gb.AddOption("5kg box", stock, valueobject.NewMoneyKRWFromInt(10000))
	require.NoError(t, err)
	require.NoError(t, gb.Publish())
	gb.ClearDomainEvents()

	repo := NewGormGroupBuyRepository(db)
	require.NoError(t, repo.Save(context.Background(), gb))

	saved, err := repo.FindByID(context.Background(), gb.ID)
	require.NoError(t, err)
	return saved
}

// seedOrderedOrder persists an ORDERED order of quantity units against the
// group buy's first option.
func seedOrderedOrder(t *testing.T, db *gorm.DB, memberID uuid.UUID, gb *groupbuy.GroupBuy, quantity int) *order.Order {
	t.Helper()

	o, err := order.NewOrder(memberID, gb.ID, []order.ItemLine{
		{OptionID: gb.Options[0].ID, Quantity: quantity, UnitPrice: gb.Options[0].SalePrice},
	})
	require.NoError(t, err)
	require.NoError(t, o.MarkOrdered(time.Now()))
	o.ClearDomainEvents()

	repo := NewGormOrderRepository(db)
	require.NoError(t, repo.Save(context.Background(), o))
	return o
}
