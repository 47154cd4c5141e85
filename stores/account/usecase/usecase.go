package usecase

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/ethereum"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/base/ptr"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/account"
	"github.com/mintybay/goapi/service/ens"
)

const (
	nonceRange   = int32(9999999)
	invalidNonce = int32(-1)
)

type AccountUseCaseCfg struct {
	Repo         account.Repo
	ActivityRepo account.ActivityHistoryRepo
	Ens          ens.ENS
	SignatureMsg string
}

type impl struct {
	repo         account.Repo
	activityRepo account.ActivityHistoryRepo
	ens          ens.ENS
	signatureMsg string
}

// New creates account usecase
func New(cfg *AccountUseCaseCfg) account.Usecase {
	return &impl{
		repo:         cfg.Repo,
		activityRepo: cfg.ActivityRepo,
		ens:          cfg.Ens,
		signatureMsg: cfg.SignatureMsg,
	}
}

func (im *impl) Get(c ctx.Ctx, address domain.Address) (*account.Info, error) {
	a, err := im.repo.Get(c, address)
	if err != nil {
		if err != domain.ErrNotFound {
			c.WithFields(log.Fields{
				"address": address,
				"err":     err,
			}).Error("get address error")
		}
		return nil, err
	}
	return im.accountToInfo(c, a), nil
}

func (im *impl) Create(c ctx.Ctx, address domain.Address) (*account.Info, error) {
	c = ctx.WithValue(c, "address", address)
	new, err := im.create(c, address)
	if err != nil {
		return nil, err
	}
	return im.accountToInfo(c, new), nil
}

func (im *impl) create(c ctx.Ctx, address domain.Address) (*account.Account, error) {
	now := time.Now()
	new := &account.Account{
		Address:   address,
		Nonce:     invalidNonce,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := im.repo.Insert(c, new); err != nil {
		c.WithField("err", err).Error("repo.Insert failed")
		return nil, err
	}
	return new, nil
}

func (im *impl) SetName(c ctx.Ctx, address domain.Address, name string) (*account.Info, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"address": address,
		"name":    name,
	})

	if _, err := im.getOrCreate(c, address); err != nil {
		return nil, err
	}
	if err := im.repo.Update(c, address, &account.Updater{
		Name:      ptr.String(name),
		UpdatedAt: time.Now(),
	}); err != nil {
		c.WithField("err", err).Error("repo.Update failed")
		return nil, err
	}
	return im.Get(c, address)
}

func (im *impl) GetName(c ctx.Ctx, address domain.Address) (string, error) {
	a, err := im.repo.Get(c, address)
	if err == domain.ErrNotFound {
		return "", nil
	} else if err != nil {
		c.WithField("err", err).Error("repo.Get failed")
		return "", err
	}
	return a.Name, nil
}

func (im *impl) getOrCreate(c ctx.Ctx, address domain.Address) (*account.Account, error) {
	a, err := im.repo.Get(c, address)
	if err == domain.ErrNotFound {
		return im.create(c, address)
	} else if err != nil {
		c.WithField("err", err).Error("repo.Get failed")
		return nil, err
	}
	return a, nil
}

func (im *impl) GenerateNonce(c ctx.Ctx, address domain.Address) (int32, error) {
	c = ctx.WithValue(c, "address", address)
	if _, err := im.getOrCreate(c, address); err != nil {
		c.WithField("err", err).Error("getOrCreate failed")
		return 0, err
	}

	nonce := im.genNonce()
	if err := im.repo.Update(c, address, &account.Updater{
		Nonce: ptr.Int32(nonce),
	}); err != nil {
		c.WithField("err", err).Error("repo.Update failed")
		return 0, err
	}
	return nonce, nil
}

func (im *impl) makeMessageWithNonce(nonce string) []byte {
	return []byte(fmt.Sprintf(im.signatureMsg, nonce))
}

func (im *impl) ValidateSignature(c ctx.Ctx, address domain.Address, signature string) error {
	c = ctx.WithValues(c, map[string]interface{}{
		"address":   address,
		"signature": signature,
	})

	a, err := im.repo.Get(c, address)
	if err != nil {
		c.WithField("err", err).Error("get address failed")
		return err
	}
	if a.Nonce == invalidNonce {
		return account.ErrInvalidNonce
	}

	// a nonce authorizes exactly one signature check
	defer im.repo.Update(c, address, &account.Updater{
		Nonce: ptr.Int32(invalidNonce),
	})

	msg := im.makeMessageWithNonce(strconv.Itoa(int(a.Nonce)))
	if isValid, err := ethereum.ValidateMsgSignature(msg, signature, string(address)); err != nil {
		c.WithField("err", err).Error("ValidateMsgSignature failed")
		return err
	} else if !isValid {
		return account.ErrInvalidSignature
	}
	return nil
}

func (im *impl) GetActivities(c ctx.Ctx, address domain.Address, optFns ...account.FindActivityHistoryOptions) (*account.ActivityResult, error) {
	opts := append(
		[]account.FindActivityHistoryOptions{
			account.ActivityHistoryWithAccount(address),
		},
		optFns...,
	)

	// fetch the page and the total count concurrently
	b := goroutines.NewBatch(2, goroutines.WithBatchSize(2))
	defer b.Close()
	b.Queue(func() (interface{}, error) {
		return im.activityRepo.FindActivities(c, opts...)
	})
	b.Queue(func() (interface{}, error) {
		return im.activityRepo.CountActivities(c, opts...)
	})
	b.QueueComplete()

	res := &account.ActivityResult{Activities: []account.ActivityHistory{}}
	for ret := range b.Results() {
		if err := ret.Error(); err != nil && err != domain.ErrNotFound {
			c.WithField("err", err).Error("fetch activities failed")
			return nil, err
		} else if err == domain.ErrNotFound {
			continue
		}
		switch v := ret.Value().(type) {
		case []account.ActivityHistory:
			res.Activities = v
		case int:
			res.Count = v
		}
	}
	return res, nil
}

func (im *impl) genNonce() int32 {
	return rand.Int31n(nonceRange)
}

// accountToInfo enriches the registry entry with its reverse-resolved ENS
// name. Resolution is best effort and never fails the read.
func (im *impl) accountToInfo(c ctx.Ctx, a *account.Account) *account.Info {
	info := a.ToInfo()
	if im.ens != nil {
		if name, err := im.ens.ReverseResolve(c, a.Address); err == nil {
			info.EnsName = name
		}
	}
	return info
}
