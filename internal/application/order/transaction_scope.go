package order

import (
	"context"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/order"
)

// TransactionScope provides transactional access to the repositories an
// admission touches. Everything executed inside one scope commits or rolls
// back atomically, which is what makes the stock decrement and the order
// write an all-or-nothing unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories share the same underlying transaction.
type TransactionalRepositories interface {
	// GroupBuyRepo returns the group buy repository scoped to the transaction
	GroupBuyRepo() groupbuy.Repository
	// OptionRepo returns the option repository scoped to the transaction
	OptionRepo() groupbuy.OptionRepository
	// OrderRepo returns the order repository scoped to the transaction
	OrderRepo() order.Repository
}

// NoOpTransactionScope runs the function without a real transaction.
// Used in tests and with stores that are already atomic on their own.
type NoOpTransactionScope struct {
	groupBuyRepo groupbuy.Repository
	optionRepo   groupbuy.OptionRepository
	orderRepo    order.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	groupBuyRepo groupbuy.Repository,
	optionRepo groupbuy.OptionRepository,
	orderRepo order.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		groupBuyRepo: groupBuyRepo,
		optionRepo:   optionRepo,
		orderRepo:    orderRepo,
	}
}

// Execute runs the function without transaction boundaries
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// GroupBuyRepo returns the group buy repository
func (s *NoOpTransactionScope) GroupBuyRepo() groupbuy.Repository {
	return s.groupBuyRepo
}

// OptionRepo returns the option repository
func (s *NoOpTransactionScope) OptionRepo() groupbuy.OptionRepository {
	return s.optionRepo
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
