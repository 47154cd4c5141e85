package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/account"
	"github.com/mintybay/goapi/stores/auth/usecase"
)

type fakeAccountUsecase struct {
	account.Usecase

	created []domain.Address
}

func (f *fakeAccountUsecase) Get(c ctx.Ctx, address domain.Address) (*account.Info, error) {
	return &account.Info{Address: address}, nil
}

func (f *fakeAccountUsecase) Create(c ctx.Ctx, address domain.Address) (*account.Info, error) {
	f.created = append(f.created, address)
	return &account.Info{Address: address}, nil
}

func TestSignAndParseToken(t *testing.T) {
	ctx := ctx.Background()
	u := usecase.New("jwt-secret", &fakeAccountUsecase{})
	tkn, err := u.SignToken(ctx, "my-address")
	assert.NoError(t, err)
	assert.NotEmpty(t, tkn)
	ads, err := u.ParseToken(ctx, tkn)
	assert.NoError(t, err)
	assert.Equal(t, "my-address", ads)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	ctx := ctx.Background()
	u := usecase.New("jwt-secret", &fakeAccountUsecase{})
	_, err := u.ParseToken(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	ctx := ctx.Background()
	u := usecase.New("jwt-secret", &fakeAccountUsecase{})
	tkn, err := u.SignToken(ctx, "my-address")
	assert.NoError(t, err)

	other := usecase.New("other-secret", &fakeAccountUsecase{})
	_, err = other.ParseToken(ctx, tkn)
	assert.Error(t, err)
}
