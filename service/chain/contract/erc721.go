package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	baseabi "github.com/mintybay/goapi/base/abi"
	bCtx "github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/service/chain"
)

// Erc721 wraps the read and transfer calls of an erc721 token contract.
type Erc721 struct {
	chainService      chain.Client
	abi               ethabi.ABI
	erc721InterfaceId [4]byte
}

func NewErc721(chainService chain.Client) *Erc721 {
	var interfaceId [4]byte
	copy(interfaceId[:], common.Hex2Bytes("80ac58cd"))
	return &Erc721{
		abi:               baseabi.ERC721TokenABI,
		chainService:      chainService,
		erc721InterfaceId: interfaceId,
	}
}

func (e *Erc721) Supports721Interface(ctx bCtx.Ctx, chainId int32, addr string) (bool, error) {
	method := "supportsInterface"
	unpacked, err := e.chainService.Call(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, e.erc721InterfaceId)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) OwnerOf(ctx bCtx.Ctx, chainId int32, addr string, tokenId *big.Int) (string, error) {
	method := "ownerOf"
	unpacked, err := e.chainService.Call(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, tokenId)
	if err != nil {
		return "", err
	}
	return unpacked[0].(common.Address).String(), nil
}

func (e *Erc721) IsApprovedForAll(ctx bCtx.Ctx, chainId int32, addr, owner, operator string) (bool, error) {
	method := "isApprovedForAll"
	unpacked, err := e.chainService.Call(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, common.HexToAddress(owner), common.HexToAddress(operator))
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc721) TransferFrom(ctx bCtx.Ctx, chainId int32, addr, from, to string, tokenId *big.Int) (domain.TxHash, error) {
	method := "transferFrom"
	return e.chainService.Transact(ctx, chainId, common.HexToAddress(addr), nil, e.abi, method, common.HexToAddress(from), common.HexToAddress(to), tokenId)
}
