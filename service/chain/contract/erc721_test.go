package contract

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	bCtx "github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/service/chain"
)

func newTestErc721(t *testing.T) *Erc721 {
	ctx := bCtx.Background()
	urls := map[int32]string{
		1: "https://rpc.ankr.com/eth",
	}
	chainService, err := chain.NewClient(ctx, &chain.ClientCfg{RpcUrls: urls})
	require.NoError(t, err)
	return NewErc721(chainService)
}

func TestErc721_Supports721Interface(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()
	e := newTestErc721(t)

	tests := []struct {
		chainId    int32
		addr       string
		res        bool
		shouldFail bool
	}{
		{
			// bayc
			chainId:    1,
			addr:       "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d",
			res:        true,
			shouldFail: false,
		},
		{
			// non contract
			chainId:    1,
			addr:       "0x94EaD797046c7b654cab82C1c27ad223b6501f1f",
			res:        false,
			shouldFail: true,
		},
		{
			// don't support
			chainId:    1,
			addr:       "0x76BE3b62873462d2142405439777e971754E8E77",
			res:        false,
			shouldFail: false,
		},
	}

	for _, tt := range tests {
		supports, err := e.Supports721Interface(ctx, tt.chainId, tt.addr)
		if tt.shouldFail {
			req.Error(err)
			continue
		}
		req.NoError(err)
		req.Equal(tt.res, supports)
	}
}

func TestErc721_OwnerOf(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()
	e := newTestErc721(t)

	owner, err := e.OwnerOf(ctx, 1, "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d", big.NewInt(1))
	req.NoError(err)
	req.NotEmpty(owner)

	// unsupported chain
	_, err = e.OwnerOf(ctx, 999, "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d", big.NewInt(1))
	req.Equal(chain.ErrUnsupportedChain, err)
}
