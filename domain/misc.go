package domain

import (
	"math/big"
	"strings"

	"golang.org/x/xerrors"
)

var (
	Big0    = big.NewInt(0)
	Big1    = big.NewInt(1)
	Big1000 = big.NewInt(1000)
)

type ChainId int32

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

func (i TokenId) ToBigInt() (*big.Int, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok {
		return nil, xerrors.Errorf("invalid token id %s", i)
	}
	return id, nil
}

type TxHash string

// ToBigInt parses base-10 amount strings coming from request payloads.
func ToBigInt(num string) (*big.Int, error) {
	bn, ok := new(big.Int).SetString(num, 10)
	if !ok {
		return nil, ErrBadParamInput
	}
	return bn, nil
}
