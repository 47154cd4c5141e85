package marketplace

import (
	"math/big"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
)

// AssetCustodian exposes the ownership operations of the external asset
// contract. The ledger never stores asset state itself.
type AssetCustodian interface {
	OwnerOf(c ctx.Ctx, assetContract domain.Address, tokenId domain.TokenId) (domain.Address, error)
	IsApprovedForAll(c ctx.Ctx, assetContract, owner, operator domain.Address) (bool, error)
	Transfer(c ctx.Ctx, assetContract, from, to domain.Address, tokenId domain.TokenId) error
}

// ValueTransfer moves funds between accounts and the ledger treasury.
// Each call either fully succeeds or leaves balances untouched; the
// usecase compensates completed calls when a later settlement step fails.
type ValueTransfer interface {
	// Collect pulls funds from an account into the treasury.
	Collect(c ctx.Ctx, from domain.Address, amount *big.Int) error
	// Pay disburses treasury funds to an account.
	Pay(c ctx.Ctx, to domain.Address, amount *big.Int) error
}
