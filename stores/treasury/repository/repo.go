package repository

import (
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
	"github.com/mintybay/goapi/service/query"
)

type impl struct {
	q query.Mongo
}

// New creates new balance repo
func New(q query.Mongo) marketplace.BalanceRepo {
	return &impl{q: q}
}

func (im *impl) Get(c ctx.Ctx, account domain.Address) (*marketplace.Balance, error) {
	b := &marketplace.Balance{}
	err := im.q.FindOne(c, domain.TableBalances, bson.M{"account": account.ToLowerStr()}, b)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"account": account,
			"err":     err,
		}).Error("find balance failed")
		return nil, err
	}
	return b, nil
}

func (im *impl) Upsert(c ctx.Ctx, account domain.Address, amount *big.Int) error {
	b := &marketplace.Balance{
		Account:   account.ToLower(),
		Amount:    amount.String(),
		UpdatedAt: time.Now(),
	}
	if err := im.q.Upsert(c, domain.TableBalances, bson.M{"account": account.ToLowerStr()}, b); err != nil {
		c.WithFields(log.Fields{
			"account": account,
			"err":     err,
		}).Error("upsert balance failed")
		return err
	}
	return nil
}
