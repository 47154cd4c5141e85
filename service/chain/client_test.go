package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	bCtx "github.com/mintybay/goapi/base/ctx"
)

func TestSignerAddress(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, err := NewClient(ctx, &ClientCfg{})
	req.NoError(err)
	_, err = c.SignerAddress()
	req.Equal(ErrNoSigner, err)

	c, err = NewClient(ctx, &ClientCfg{
		SignerKey: "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	})
	req.NoError(err)
	signer, err := c.SignerAddress()
	req.NoError(err)
	req.NotEmpty(signer)

	_, err = NewClient(ctx, &ClientCfg{SignerKey: "not-a-key"})
	req.Error(err)
}

func TestTransferValueRequiresSigner(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()

	c, err := NewClient(ctx, &ClientCfg{})
	req.NoError(err)

	_, err = c.TransferValue(ctx, 1, common.Address{}, big.NewInt(1))
	req.Equal(ErrNoSigner, err)
}
