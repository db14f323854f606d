package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/groupbuy/backend/internal/application/order"
	"github.com/groupbuy/backend/internal/domain/order"
)

func TestGormTransactionScope_CommitsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)

	gb := seedOpenGroupBuy(t, db, 10)
	optionID := gb.Options[0].ID

	err := scope.Execute(context.Background(), func(repos apporder.TransactionalRepositories) error {
		if _, err := repos.OptionRepo().DecrementStock(context.Background(), optionID, 3); err != nil {
			return err
		}
		o, err := order.NewOrder(uuid.New(), gb.ID, []order.ItemLine{
			{OptionID: optionID, Quantity: 3, UnitPrice: gb.Options[0].SalePrice},
		})
		if err != nil {
			return err
		}
		return repos.OrderRepo().Save(context.Background(), o)
	})
	require.NoError(t, err)

	stock, err := NewGormOptionRepository(db).AvailableStock(context.Background(), optionID)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)

	gb := seedOpenGroupBuy(t, db, 10)
	optionID := gb.Options[0].ID

	err := scope.Execute(context.Background(), func(repos apporder.TransactionalRepositories) error {
		if _, err := repos.OptionRepo().DecrementStock(context.Background(), optionID, 3); err != nil {
			return err
		}
		return errors.New("admission rejected")
	})
	require.Error(t, err)

	// The decrement must not survive the rollback
	stock, err := NewGormOptionRepository(db).AvailableStock(context.Background(), optionID)
	require.NoError(t, err)
	assert.Equal(t, 10, stock)
}

func TestGormTransactionScope_ExposesAllRepositories(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)

	err := scope.Execute(context.Background(), func(repos apporder.TransactionalRepositories) error {
		assert.NotNil(t, repos.GroupBuyRepo())
		assert.NotNil(t, repos.OptionRepo())
		assert.NotNil(t, repos.OrderRepo())
		return nil
	})
	require.NoError(t, err)
}
