package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/account"
	"github.com/mintybay/goapi/service/query"
)

func makeFindQuery(optFns ...account.FindActivityHistoryOptions) (bson.M, error) {
	opts, err := account.GetFindActivityHistoryOptions(optFns...)
	if err != nil {
		return nil, err
	}

	qry := bson.M{}

	if opts.Account != nil {
		qry["$or"] = bson.A{
			bson.M{"account": *opts.Account},
			bson.M{"to": *opts.Account},
		}
	}

	if opts.ItemId != nil {
		qry["itemId"] = *opts.ItemId
	}

	if opts.TimeGTE != nil {
		qry["time"] = bson.M{"$gte": *opts.TimeGTE}
	}

	if len(opts.Types) > 1 {
		qry["type"] = bson.M{"$in": opts.Types}
	} else if len(opts.Types) > 0 {
		qry["type"] = opts.Types[0]
	}

	return qry, nil
}

type activityHistoryRepo struct {
	q query.Mongo
}

func NewActivityHistoryRepo(q query.Mongo) account.ActivityHistoryRepo {
	return &activityHistoryRepo{q: q}
}

func (r *activityHistoryRepo) Insert(c ctx.Ctx, a *account.ActivityHistory) error {
	if err := r.q.Insert(c, domain.TableActivities, a); err != nil {
		c.WithFields(log.Fields{
			"activityHistory": a,
			"err":             err,
		}).Error("q.Insert failed")
		return err
	}
	return nil
}

func (r *activityHistoryRepo) FindActivities(c ctx.Ctx, optFns ...account.FindActivityHistoryOptions) ([]account.ActivityHistory, error) {
	opts, err := account.GetFindActivityHistoryOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("account.GetFindActivityHistoryOptions failed")
		return nil, err
	}

	qry, err := makeFindQuery(optFns...)
	if err != nil {
		c.WithField("err", err).Error("makeFindQuery failed")
		return nil, err
	}

	offset := 0
	limit := 0

	if opts.Offset != nil {
		offset = *opts.Offset
	}

	if opts.Limit != nil {
		limit = *opts.Limit
	}

	res := []account.ActivityHistory{}

	err = r.q.Search(c, domain.TableActivities, offset, limit, "-time", qry, &res)
	if err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).WithField("query", qry).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (r *activityHistoryRepo) CountActivities(c ctx.Ctx, optFns ...account.FindActivityHistoryOptions) (int, error) {
	qry, err := makeFindQuery(optFns...)
	if err != nil {
		c.WithField("err", err).Error("makeFindQuery failed")
		return 0, err
	}

	cnt, err := r.q.Count(c, domain.TableActivities, qry)
	if err != nil {
		c.WithField("err", err).WithField("query", qry).Error("q.Count failed")
		return 0, err
	}

	return cnt, nil
}
