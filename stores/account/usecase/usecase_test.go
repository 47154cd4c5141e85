package usecase

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/ethereum"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/account"
)

const signatureMsg = "Welcome to mintybay! Sign this one-time nonce to log in: %s"

type fakeRepo struct {
	accounts map[domain.Address]*account.Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[domain.Address]*account.Account{}}
}

func (f *fakeRepo) Get(c ctx.Ctx, address domain.Address) (*account.Account, error) {
	a, ok := f.accounts[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) GetAccounts(c ctx.Ctx, addresses []domain.Address) ([]*account.Account, error) {
	res := []*account.Account{}
	for _, addr := range addresses {
		if a, err := f.Get(c, addr); err == nil {
			res = append(res, a)
		}
	}
	return res, nil
}

func (f *fakeRepo) Insert(c ctx.Ctx, a *account.Account) error {
	cp := *a
	cp.Address = cp.Address.ToLower()
	f.accounts[cp.Address] = &cp
	return nil
}

func (f *fakeRepo) Update(c ctx.Ctx, address domain.Address, updater *account.Updater) error {
	a, ok := f.accounts[address.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if updater.Name != nil {
		a.Name = *updater.Name
	}
	if updater.Nonce != nil {
		a.Nonce = *updater.Nonce
	}
	return nil
}

type fakeActivityRepo struct {
	entries []account.ActivityHistory
}

func (f *fakeActivityRepo) Insert(c ctx.Ctx, a *account.ActivityHistory) error {
	f.entries = append(f.entries, *a)
	return nil
}

func (f *fakeActivityRepo) FindActivities(c ctx.Ctx, opts ...account.FindActivityHistoryOptions) ([]account.ActivityHistory, error) {
	return f.entries, nil
}

func (f *fakeActivityRepo) CountActivities(c ctx.Ctx, opts ...account.FindActivityHistoryOptions) (int, error) {
	return len(f.entries), nil
}

func newUsecase() (account.Usecase, *fakeRepo, *fakeActivityRepo) {
	repo := newFakeRepo()
	activities := &fakeActivityRepo{}
	uc := New(&AccountUseCaseCfg{
		Repo:         repo,
		ActivityRepo: activities,
		SignatureMsg: signatureMsg,
	})
	return uc, repo, activities
}

func TestSetAndGetName(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	uc, _, _ := newUsecase()

	// unregistered accounts read back the empty name
	name, err := uc.GetName(c, "0xAlice")
	req.NoError(err)
	req.Equal("", name)

	info, err := uc.SetName(c, "0xAlice", "alice")
	req.NoError(err)
	req.Equal("alice", info.Name)
	req.Equal(domain.Address("0xalice"), info.Address)

	name, err = uc.GetName(c, "0xALICE")
	req.NoError(err)
	req.Equal("alice", name)

	// names are plain registry values, reusing one is fine
	info, err = uc.SetName(c, "0xBob", "alice")
	req.NoError(err)
	req.Equal("alice", info.Name)
}

func TestNonceAndSignature(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	uc, repo, _ := newUsecase()

	privateKey, publicKey, err := ethereum.GenerateKey()
	req.NoError(err)
	address := domain.Address(crypto.PubkeyToAddress(*publicKey).Hex())

	// signature before any nonce was handed out
	req.NoError(repo.Insert(c, &account.Account{Address: address, Nonce: -1}))
	err = uc.ValidateSignature(c, address, "0x00")
	req.ErrorIs(err, account.ErrInvalidNonce)

	nonce, err := uc.GenerateNonce(c, address)
	req.NoError(err)

	message := []byte(fmt.Sprintf(signatureMsg, strconv.Itoa(int(nonce))))
	signature, err := crypto.Sign(accounts.TextHash(message), privateKey)
	req.NoError(err)

	req.NoError(uc.ValidateSignature(c, address, hexutil.Encode(signature)))

	// the nonce is single use
	err = uc.ValidateSignature(c, address, hexutil.Encode(signature))
	req.ErrorIs(err, account.ErrInvalidNonce)
}

func TestValidateSignatureWrongSigner(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	uc, _, _ := newUsecase()

	privateKey, _, err := ethereum.GenerateKey()
	req.NoError(err)
	_, otherPublicKey, err := ethereum.GenerateKey()
	req.NoError(err)
	address := domain.Address(crypto.PubkeyToAddress(*otherPublicKey).Hex())

	nonce, err := uc.GenerateNonce(c, address)
	req.NoError(err)

	message := []byte(fmt.Sprintf(signatureMsg, strconv.Itoa(int(nonce))))
	signature, err := crypto.Sign(accounts.TextHash(message), privateKey)
	req.NoError(err)

	err = uc.ValidateSignature(c, address, hexutil.Encode(signature))
	req.ErrorIs(err, account.ErrInvalidSignature)
}

func TestGenerateNonceCreatesAccount(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	uc, repo, _ := newUsecase()

	_, err := uc.GenerateNonce(c, "0xAlice")
	req.NoError(err)

	a, err := repo.Get(c, "0xalice")
	req.NoError(err)
	req.NotEqual(int32(-1), a.Nonce)
}

func TestGetActivities(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	uc, _, activities := newUsecase()

	now := time.Now()
	req.NoError(activities.Insert(c, &account.ActivityHistory{Id: "1", Type: account.ActivityHistoryTypeList, Account: "0xalice", Time: now}))
	req.NoError(activities.Insert(c, &account.ActivityHistory{Id: "2", Type: account.ActivityHistoryTypeSold, Account: "0xalice", Time: now}))

	res, err := uc.GetActivities(c, "0xAlice")
	req.NoError(err)
	req.Equal(2, res.Count)
	req.Len(res.Activities, 2)
}
