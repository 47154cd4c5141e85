package usecase

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	bCtx "github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
)

const (
	alice = domain.Address("0xa11ce00000000000000000000000000000000001")
	bob   = domain.Address("0xb0b0000000000000000000000000000000000002")
)

type fakeRepo struct {
	balances   map[domain.Address]string
	failUpsert bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: map[domain.Address]string{}}
}

func (r *fakeRepo) Get(c bCtx.Ctx, account domain.Address) (*marketplace.Balance, error) {
	amount, ok := r.balances[account.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &marketplace.Balance{Account: account.ToLower(), Amount: amount}, nil
}

func (r *fakeRepo) Upsert(c bCtx.Ctx, account domain.Address, amount *big.Int) error {
	if r.failUpsert {
		return errors.New("upsert failed")
	}
	r.balances[account.ToLower()] = amount.String()
	return nil
}

func (r *fakeRepo) balanceOf(account domain.Address) int64 {
	amount, ok := r.balances[account.ToLower()]
	if !ok {
		return 0
	}
	v, _ := new(big.Int).SetString(amount, 10)
	return v.Int64()
}

type fakeChain struct {
	transfers    map[common.Address]*big.Int
	failTransfer bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{transfers: map[common.Address]*big.Int{}}
}

func (f *fakeChain) Call(c bCtx.Ctx, chainId int32, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChain) Transact(c bCtx.Ctx, chainId int32, addr common.Address, value *big.Int, _abi abi.ABI, method string, params ...interface{}) (domain.TxHash, error) {
	return "", errors.New("not implemented")
}

func (f *fakeChain) TransferValue(c bCtx.Ctx, chainId int32, to common.Address, amount *big.Int) (domain.TxHash, error) {
	if f.failTransfer {
		return "", errors.New("transfer failed")
	}
	f.transfers[to] = new(big.Int).Set(amount)
	return domain.TxHash("0xtx"), nil
}

func (f *fakeChain) SignerAddress() (domain.Address, error) {
	return domain.Address("0x0peRator0000000000000000000000000000000f"), nil
}

func fixture() (*impl, *fakeRepo, *fakeChain) {
	repo := newFakeRepo()
	chainClient := newFakeChain()
	uc := New(&TreasuryUseCaseCfg{
		Repo:    repo,
		Chain:   chainClient,
		ChainId: 1,
	}).(*impl)
	return uc, repo, chainClient
}

func TestDepositAndBalance(t *testing.T) {
	uc, repo, _ := fixture()
	c := bCtx.Background()

	balance, err := uc.BalanceOf(c, alice)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	require.NoError(t, uc.Deposit(c, alice, big.NewInt(20000)))
	require.NoError(t, uc.Deposit(c, alice, big.NewInt(500)))

	balance, err = uc.BalanceOf(c, alice)
	require.NoError(t, err)
	require.Equal(t, int64(20500), balance.Int64())
	require.Equal(t, int64(20500), repo.balanceOf(alice))

	require.Equal(t, domain.ErrBadParamInput, uc.Deposit(c, alice, big.NewInt(0)))
	require.Equal(t, domain.ErrBadParamInput, uc.Deposit(c, alice, nil))
}

func TestCollectAndPay(t *testing.T) {
	uc, repo, _ := fixture()
	c := bCtx.Background()

	require.NoError(t, uc.Deposit(c, alice, big.NewInt(20500)))

	require.NoError(t, uc.Collect(c, alice, big.NewInt(20500)))
	require.Equal(t, int64(0), repo.balanceOf(alice))
	require.Equal(t, int64(20500), repo.balanceOf(potAccount))

	require.NoError(t, uc.Pay(c, bob, big.NewInt(20000)))
	require.Equal(t, int64(20000), repo.balanceOf(bob))
	require.Equal(t, int64(500), repo.balanceOf(potAccount))

	// zero amounts are no-ops
	require.NoError(t, uc.Collect(c, alice, nil))
	require.NoError(t, uc.Pay(c, bob, big.NewInt(0)))
}

func TestCollectInsufficientFunds(t *testing.T) {
	uc, repo, _ := fixture()
	c := bCtx.Background()

	require.NoError(t, uc.Deposit(c, alice, big.NewInt(100)))

	err := uc.Collect(c, alice, big.NewInt(101))
	require.Equal(t, domain.ErrInsufficientFunds, err)
	require.Equal(t, int64(100), repo.balanceOf(alice))
	require.Equal(t, int64(0), repo.balanceOf(potAccount))
}

func TestWithdraw(t *testing.T) {
	uc, repo, chainClient := fixture()
	c := bCtx.Background()

	require.NoError(t, uc.Deposit(c, alice, big.NewInt(20000)))

	txHash, err := uc.Withdraw(c, alice, big.NewInt(15000))
	require.NoError(t, err)
	require.Equal(t, domain.TxHash("0xtx"), txHash)
	require.Equal(t, int64(5000), repo.balanceOf(alice))
	require.Equal(t, int64(15000), chainClient.transfers[common.HexToAddress(string(alice))].Int64())

	_, err = uc.Withdraw(c, alice, big.NewInt(5001))
	require.Equal(t, domain.ErrInsufficientFunds, err)

	_, err = uc.Withdraw(c, alice, big.NewInt(0))
	require.Equal(t, domain.ErrBadParamInput, err)
}

func TestWithdrawRestoresBalanceOnTransferFailure(t *testing.T) {
	uc, repo, chainClient := fixture()
	c := bCtx.Background()

	require.NoError(t, uc.Deposit(c, alice, big.NewInt(20000)))
	chainClient.failTransfer = true

	_, err := uc.Withdraw(c, alice, big.NewInt(15000))
	require.Error(t, err)
	require.Equal(t, int64(20000), repo.balanceOf(alice))
}
