package ens

import (
	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
)

type ENS interface {
	Resolve(ctx ctx.Ctx, name string) (domain.Address, error)
	ReverseResolve(ctx ctx.Ctx, address domain.Address) (string, error)
}
