package layaway

import (
	"context"

	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/ledger"
)

// AppendTransaction numbers txn within ns and appends it to the transaction log of
// the unit of work. It returns how many identifier collisions were retried.
func AppendTransaction(
	ctx context.Context,
	repos TransactionalRepositories,
	txn *ledger.Transaction,
	ns identifier.Namespace,
	maxAttempts int,
) (int, error) {
	_, retries, err := identifier.Assign(ctx, repos.Identifiers(), txn.StoreID, ns, maxAttempts, func(candidate string) error {
		txn.AssignNumber(candidate)
		return repos.Transactions().Append(ctx, txn)
	})
	return retries, err
}
