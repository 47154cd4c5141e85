package account

import (
	"time"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
)

type ActivityHistoryType string

const (
	ActivityHistoryTypeList          ActivityHistoryType = "list"
	ActivityHistoryTypeBuy           ActivityHistoryType = "buy"
	ActivityHistoryTypeSold          ActivityHistoryType = "sold"
	ActivityHistoryTypeCreateOffer   ActivityHistoryType = "createOffer"
	ActivityHistoryTypeAcceptOffer   ActivityHistoryType = "acceptOffer"
	ActivityHistoryTypeWithdrawOffer ActivityHistoryType = "withdrawOffer"
)

// ActivityHistory journals one ledger event for an account. Entries are
// written after the ledger commits and are not authoritative state.
type ActivityHistory struct {
	Id            string              `json:"id" bson:"id"`
	Type          ActivityHistoryType `json:"type" bson:"type"`
	Account       domain.Address      `json:"account" bson:"account"`
	To            domain.Address      `json:"to" bson:"to"`
	ItemId        uint64              `json:"itemId" bson:"itemId"`
	AssetContract domain.Address      `json:"assetContract" bson:"assetContract"`
	TokenId       domain.TokenId      `json:"tokenId" bson:"tokenId"`
	Price         string              `json:"price" bson:"price"`
	Time          time.Time           `json:"time" bson:"time"`
}

type ActivityResult struct {
	Activities []ActivityHistory `json:"activities"`
	Count      int               `json:"count"`
}

type findActivityHistoryOptions struct {
	Offset  *int
	Limit   *int
	Account *domain.Address
	ItemId  *uint64
	Types   []ActivityHistoryType
	TimeGTE *time.Time
}

type FindActivityHistoryOptions func(*findActivityHistoryOptions) error

func GetFindActivityHistoryOptions(opts ...FindActivityHistoryOptions) (*findActivityHistoryOptions, error) {
	res := &findActivityHistoryOptions{}
	for _, opt := range opts {
		if err := opt(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func ActivityHistoryWithPagination(offset, limit int) FindActivityHistoryOptions {
	return func(opts *findActivityHistoryOptions) error {
		opts.Offset = &offset
		opts.Limit = &limit
		return nil
	}
}

func ActivityHistoryWithAccount(account domain.Address) FindActivityHistoryOptions {
	return func(opts *findActivityHistoryOptions) error {
		opts.Account = account.ToLowerPtr()
		return nil
	}
}

func ActivityHistoryWithItemId(itemId uint64) FindActivityHistoryOptions {
	return func(opts *findActivityHistoryOptions) error {
		opts.ItemId = &itemId
		return nil
	}
}

func ActivityHistoryWithTypes(types ...ActivityHistoryType) FindActivityHistoryOptions {
	return func(opts *findActivityHistoryOptions) error {
		opts.Types = types
		return nil
	}
}

func ActivityHistoryWithTimeGTE(time time.Time) FindActivityHistoryOptions {
	return func(opts *findActivityHistoryOptions) error {
		opts.TimeGTE = &time
		return nil
	}
}

type ActivityHistoryRepo interface {
	Insert(ctx.Ctx, *ActivityHistory) error
	FindActivities(c ctx.Ctx, opts ...FindActivityHistoryOptions) ([]ActivityHistory, error)
	CountActivities(c ctx.Ctx, opts ...FindActivityHistoryOptions) (int, error)
}
