package contract

import (
	bCtx "github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
)

type custodian struct {
	erc721  *Erc721
	chainId int32
}

// NewCustodian adapts the erc721 wrapper to the custody operations of a
// single chain.
func NewCustodian(erc721 *Erc721, chainId int32) marketplace.AssetCustodian {
	return &custodian{
		erc721:  erc721,
		chainId: chainId,
	}
}

func (cu *custodian) OwnerOf(c bCtx.Ctx, assetContract domain.Address, tokenId domain.TokenId) (domain.Address, error) {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return domain.EmptyAddress, err
	}
	owner, err := cu.erc721.OwnerOf(c, cu.chainId, assetContract.ToLowerStr(), id)
	if err != nil {
		c.WithFields(log.Fields{
			"err":           err,
			"assetContract": assetContract,
			"tokenId":       tokenId,
		}).Error("erc721.OwnerOf failed")
		return domain.EmptyAddress, err
	}
	return domain.Address(owner), nil
}

func (cu *custodian) IsApprovedForAll(c bCtx.Ctx, assetContract, owner, operator domain.Address) (bool, error) {
	approved, err := cu.erc721.IsApprovedForAll(c, cu.chainId, assetContract.ToLowerStr(), owner.ToLowerStr(), operator.ToLowerStr())
	if err != nil {
		c.WithFields(log.Fields{
			"err":           err,
			"assetContract": assetContract,
			"owner":         owner,
		}).Error("erc721.IsApprovedForAll failed")
		return false, err
	}
	return approved, nil
}

func (cu *custodian) Transfer(c bCtx.Ctx, assetContract, from, to domain.Address, tokenId domain.TokenId) error {
	id, err := tokenId.ToBigInt()
	if err != nil {
		return err
	}
	txHash, err := cu.erc721.TransferFrom(c, cu.chainId, assetContract.ToLowerStr(), from.ToLowerStr(), to.ToLowerStr(), id)
	if err != nil {
		c.WithFields(log.Fields{
			"err":           err,
			"assetContract": assetContract,
			"tokenId":       tokenId,
			"from":          from,
			"to":            to,
		}).Error("erc721.TransferFrom failed")
		return err
	}
	c.WithFields(log.Fields{
		"txHash":        txHash,
		"assetContract": assetContract,
		"tokenId":       tokenId,
	}).Info("asset transfer submitted")
	return nil
}
