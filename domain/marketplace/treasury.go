package marketplace

import (
	"math/big"
	"time"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
)

// Balance is one account's funds held by the treasury. Amount is a base-10
// integer string because mongo cannot store big.Int natively.
type Balance struct {
	Account   domain.Address `json:"account" bson:"account"`
	Amount    string         `json:"amount" bson:"amount"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updatedAt"`
}

func (b *Balance) AmountBigInt() (*big.Int, error) {
	amount, ok := new(big.Int).SetString(b.Amount, 10)
	if !ok {
		return nil, domain.ErrInternalServerError
	}
	return amount, nil
}

// BalanceRepo stores per-account treasury balances.
type BalanceRepo interface {
	// Get returns the balance entry, or domain.ErrNotFound if the account
	// has never held funds.
	Get(c ctx.Ctx, account domain.Address) (*Balance, error)
	Upsert(c ctx.Ctx, account domain.Address, amount *big.Int) error
}

// Treasury tracks the funds accounts have on deposit and moves them during
// settlement. Sale proceeds accrue to the payee's balance until withdrawn.
type Treasury interface {
	ValueTransfer

	BalanceOf(c ctx.Ctx, account domain.Address) (*big.Int, error)
	// Deposit credits funds to the account's balance.
	Deposit(c ctx.Ctx, account domain.Address, amount *big.Int) error
	// Withdraw debits the account's balance and sends the amount on chain.
	Withdraw(c ctx.Ctx, account domain.Address, amount *big.Int) (domain.TxHash, error)
}
