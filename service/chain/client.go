package chain

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	bCtx "github.com/mintybay/goapi/base/ctx"
	baseEthereum "github.com/mintybay/goapi/base/ethereum"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/domain"
)

var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrNoSigner         = errors.New("no signer key configured")
)

type ClientCfg struct {
	RpcUrls        map[int32]string
	ArchiveRpcUrls map[int32]string
	// SignerKey is the hex-encoded private key used for transactions.
	// Read-only deployments leave it empty.
	SignerKey     string
	MaxConcurrent int
}

type Client interface {
	// Call executes a read-only contract call
	Call(bCtx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) ([]interface{}, error)
	// Transact submits a state-changing contract call signed by the
	// configured key and returns the transaction hash
	Transact(bCtx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) (domain.TxHash, error)
	// TransferValue sends native value from the signer to the account
	TransferValue(c bCtx.Ctx, chainId int32, to common.Address, amount *big.Int) (domain.TxHash, error)
	// SignerAddress returns the address of the configured signer key
	SignerAddress() (domain.Address, error)
}

type clientImpl struct {
	clients        map[int32]*baseEthereum.ThrottledClient
	archiveClients map[int32]*baseEthereum.ThrottledClient
	signer         *ecdsa.PrivateKey
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	var anyerr error

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	dial := func(urls map[int32]string) map[int32]*baseEthereum.ThrottledClient {
		clients := make(map[int32]*baseEthereum.ThrottledClient)
		for chainId, url := range urls {
			client, err := ethclient.DialContext(ctx, url)
			if err != nil {
				anyerr = err
				ctx.WithFields(log.Fields{
					"err":     err,
					"chainId": chainId,
					"url":     url,
				}).Warn("failed to dial rpc")
				// soft warning, still let the server start
				continue
			}
			clients[chainId] = baseEthereum.NewTrottledClient(client, maxConcurrent)
		}
		return clients
	}

	im := &clientImpl{
		clients:        dial(cfg.RpcUrls),
		archiveClients: dial(cfg.ArchiveRpcUrls),
	}

	if len(cfg.SignerKey) > 0 {
		key, err := crypto.HexToECDSA(cfg.SignerKey)
		if err != nil {
			return nil, err
		}
		im.signer = key
	}

	return im, anyerr
}

func (c *clientImpl) getClient(chainId int32, blk *big.Int) (*baseEthereum.ThrottledClient, error) {
	var (
		client *baseEthereum.ThrottledClient
		ok     bool
	)
	if blk == nil {
		client, ok = c.clients[chainId]
	} else {
		client, ok = c.archiveClients[chainId]
	}
	if !ok {
		return nil, ErrUnsupportedChain
	}
	return client, nil
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId int32, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	client, err := c.getClient(chainId, blk)
	if err != nil {
		return nil, err
	}

	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	res, err := client.CallContract(ctx, msg, blk)
	if err != nil {
		ctx.WithField("err", err).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithField("err", err).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}

func (c *clientImpl) Transact(ctx bCtx.Ctx, chainId int32, addr common.Address, value *big.Int, _abi abi.ABI, method string, params ...interface{}) (domain.TxHash, error) {
	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return "", err
	}
	return c.send(ctx, chainId, addr, value, data)
}

func (c *clientImpl) TransferValue(ctx bCtx.Ctx, chainId int32, to common.Address, amount *big.Int) (domain.TxHash, error) {
	return c.send(ctx, chainId, to, amount, nil)
}

func (c *clientImpl) SignerAddress() (domain.Address, error) {
	if c.signer == nil {
		return domain.EmptyAddress, ErrNoSigner
	}
	return domain.Address(crypto.PubkeyToAddress(c.signer.PublicKey).Hex()), nil
}

func (c *clientImpl) send(ctx bCtx.Ctx, chainId int32, to common.Address, value *big.Int, data []byte) (domain.TxHash, error) {
	if c.signer == nil {
		return "", ErrNoSigner
	}
	client, err := c.getClient(chainId, nil)
	if err != nil {
		return "", err
	}

	from := crypto.PubkeyToAddress(c.signer.PublicKey)
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		ctx.WithField("err", err).Error("client.PendingNonceAt failed")
		return "", err
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("client.SuggestGasPrice failed")
		return "", err
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		ctx.WithField("err", err).Error("client.EstimateGas failed")
		return "", err
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(int64(chainId))), c.signer)
	if err != nil {
		ctx.WithField("err", err).Error("types.SignTx failed")
		return "", err
	}
	if err := client.SendTransaction(ctx, signedTx); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
			"tx":  signedTx.Hash().Hex(),
		}).Error("client.SendTransaction failed")
		return "", err
	}
	return domain.TxHash(signedTx.Hash().Hex()), nil
}
