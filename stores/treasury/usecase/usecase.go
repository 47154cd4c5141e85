package usecase

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
	"github.com/mintybay/goapi/service/chain"
)

// potAccount is the balance entry holding funds collected during
// settlement before they are paid out.
const potAccount = domain.EmptyAddress

type TreasuryUseCaseCfg struct {
	Repo    marketplace.BalanceRepo
	Chain   chain.Client
	ChainId int32
}

type impl struct {
	mu      sync.Mutex
	repo    marketplace.BalanceRepo
	chain   chain.Client
	chainId int32
}

// New creates treasury usecase
func New(cfg *TreasuryUseCaseCfg) marketplace.Treasury {
	return &impl{
		repo:    cfg.Repo,
		chain:   cfg.Chain,
		chainId: cfg.ChainId,
	}
}

func (im *impl) BalanceOf(c ctx.Ctx, account domain.Address) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.balanceOf(c, account)
}

func (im *impl) Deposit(c ctx.Ctx, account domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrBadParamInput
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	return im.credit(c, account, amount)
}

func (im *impl) Withdraw(c ctx.Ctx, account domain.Address, amount *big.Int) (domain.TxHash, error) {
	if amount == nil || amount.Sign() <= 0 {
		return "", domain.ErrBadParamInput
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	if err := im.debit(c, account, amount); err != nil {
		return "", err
	}

	txHash, err := im.chain.TransferValue(c, im.chainId, common.HexToAddress(string(account)), amount)
	if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"account": account,
			"amount":  amount.String(),
		}).Error("chain.TransferValue failed")
		if cerr := im.credit(c, account, amount); cerr != nil {
			c.WithField("err", cerr).Error("withdraw compensation failed")
		}
		return "", err
	}
	return txHash, nil
}

func (im *impl) Collect(c ctx.Ctx, from domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	return im.move(c, from, potAccount, amount)
}

func (im *impl) Pay(c ctx.Ctx, to domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	return im.move(c, potAccount, to, amount)
}

func (im *impl) balanceOf(c ctx.Ctx, account domain.Address) (*big.Int, error) {
	b, err := im.repo.Get(c, account)
	if err == domain.ErrNotFound {
		return big.NewInt(0), nil
	} else if err != nil {
		return nil, err
	}
	return b.AmountBigInt()
}

func (im *impl) credit(c ctx.Ctx, account domain.Address, amount *big.Int) error {
	balance, err := im.balanceOf(c, account)
	if err != nil {
		return err
	}
	return im.repo.Upsert(c, account, new(big.Int).Add(balance, amount))
}

func (im *impl) debit(c ctx.Ctx, account domain.Address, amount *big.Int) error {
	balance, err := im.balanceOf(c, account)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return domain.ErrInsufficientFunds
	}
	return im.repo.Upsert(c, account, new(big.Int).Sub(balance, amount))
}

// move debits one account and credits another. A failed credit restores
// the debited balance so the pair never half-applies.
func (im *impl) move(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	if err := im.debit(c, from, amount); err != nil {
		return err
	}
	if err := im.credit(c, to, amount); err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"from":   from,
			"to":     to,
			"amount": amount.String(),
		}).Error("credit failed")
		if cerr := im.credit(c, from, amount); cerr != nil {
			c.WithField("err", cerr).Error("move compensation failed")
		}
		return err
	}
	return nil
}
