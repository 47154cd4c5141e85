package marketplace

import (
	"math/big"

	"github.com/mintybay/goapi/base/ctx"
)

// SaleNotifier publishes a completed sale to an external channel. Called
// after the ledger commits; failures must not affect settlement.
type SaleNotifier interface {
	NotifySold(c ctx.Ctx, item *MarketItem, salePrice *big.Int) error
}
