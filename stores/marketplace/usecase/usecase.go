package usecase

import (
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/log"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/account"
	"github.com/mintybay/goapi/domain/marketplace"
)

type MarketplaceUseCaseCfg struct {
	Repo                     marketplace.Repo
	Custodian                marketplace.AssetCustodian
	ValueTransfer            marketplace.ValueTransfer
	ActivityRepo             account.ActivityHistoryRepo
	Notifier                 marketplace.SaleNotifier
	TransactionFeePermillage int64
	FeeReceiver              domain.Address
	CustodyOperator          domain.Address
}

type impl struct {
	mu            sync.Mutex
	repo          marketplace.Repo
	custodian     marketplace.AssetCustodian
	valueTransfer marketplace.ValueTransfer
	activityRepo  account.ActivityHistoryRepo
	notifier      marketplace.SaleNotifier
	txFee         int64
	feeReceiver   domain.Address
	operator      domain.Address
}

// New creates marketplace usecase
func New(cfg *MarketplaceUseCaseCfg) marketplace.Usecase {
	return &impl{
		repo:          cfg.Repo,
		custodian:     cfg.Custodian,
		valueTransfer: cfg.ValueTransfer,
		activityRepo:  cfg.ActivityRepo,
		notifier:      cfg.Notifier,
		txFee:         cfg.TransactionFeePermillage,
		feeReceiver:   cfg.FeeReceiver,
		operator:      cfg.CustodyOperator,
	}
}

// compensator unwinds value and custody interactions of a half-done
// settlement in reverse order. Compensation failures are logged only;
// there is nothing further to unwind them with.
type compensator struct {
	steps []func(ctx.Ctx) error
}

func (cp *compensator) push(step func(ctx.Ctx) error) {
	cp.steps = append(cp.steps, step)
}

func (cp *compensator) unwind(c ctx.Ctx) {
	for i := len(cp.steps) - 1; i >= 0; i-- {
		if err := cp.steps[i](c); err != nil {
			c.WithField("err", err).Error("settlement compensation failed")
		}
	}
}

// collect pulls funds into the treasury and records the refund as its
// compensation.
func (im *impl) collect(c ctx.Ctx, cp *compensator, from domain.Address, amount *big.Int) error {
	if err := im.valueTransfer.Collect(c, from, amount); err != nil {
		return err
	}
	cp.push(func(c ctx.Ctx) error {
		return im.valueTransfer.Pay(c, from, amount)
	})
	return nil
}

// pay disburses treasury funds and records the clawback as its
// compensation.
func (im *impl) pay(c ctx.Ctx, cp *compensator, to domain.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := im.valueTransfer.Pay(c, to, amount); err != nil {
		return err
	}
	cp.push(func(c ctx.Ctx) error {
		return im.valueTransfer.Collect(c, to, amount)
	})
	return nil
}

func (im *impl) CreateMarketItem(c ctx.Ctx, caller domain.Address, payload *marketplace.CreateMarketItemPayload) (*marketplace.MarketItem, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"caller":        caller,
		"assetContract": payload.AssetContract,
		"tokenId":       payload.TokenId,
	})

	price, err := domain.ToBigInt(payload.Price)
	if err != nil || price.Sign() <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if !marketplace.ValidPermillage(payload.RoyaltyFeePermillage) {
		return nil, domain.ErrBadParamInput
	}

	owner, err := im.custodian.OwnerOf(c, payload.AssetContract, payload.TokenId)
	if err != nil {
		c.WithField("err", err).Error("custodian.OwnerOf failed")
		return nil, err
	}
	if !owner.Equals(caller) {
		return nil, domain.ErrNotAssetOwner
	}
	approved, err := im.custodian.IsApprovedForAll(c, payload.AssetContract, caller, im.operator)
	if err != nil {
		c.WithField("err", err).Error("custodian.IsApprovedForAll failed")
		return nil, err
	}
	if !approved {
		return nil, domain.ErrNotApproved
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	// the creator of an asset is pinned by its first listing; every
	// relisting inherits it so royalties keep flowing to the same account
	creator := caller
	if prev, err := im.repo.LatestItemByAsset(c, payload.AssetContract, payload.TokenId); err == nil {
		creator = prev.Creator
	} else if err != domain.ErrNotFound {
		c.WithField("err", err).Error("repo.LatestItemByAsset failed")
		return nil, err
	}

	item := &marketplace.MarketItem{
		AssetContract:        payload.AssetContract.ToLower(),
		TokenId:              payload.TokenId,
		Seller:               caller.ToLower(),
		Creator:              creator.ToLower(),
		Owner:                domain.EmptyAddress,
		Price:                price,
		RoyaltyFeePermillage: payload.RoyaltyFeePermillage,
	}
	id, err := im.repo.AppendItem(c, item)
	if err != nil {
		c.WithField("err", err).Error("repo.AppendItem failed")
		return nil, err
	}
	item.Id = id

	im.journal(c, account.ActivityHistoryTypeList, caller, domain.EmptyAddress, item, item.Price)
	return item, nil
}

func (im *impl) BuyMarketItem(c ctx.Ctx, itemId uint64, caller domain.Address, valueSent *big.Int) (*marketplace.MarketItem, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"itemId": itemId,
		"caller": caller,
	})

	im.mu.Lock()
	defer im.mu.Unlock()

	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return nil, err
	}
	if item.Sold {
		return nil, domain.ErrAlreadySold
	}
	if item.Seller.Equals(caller) {
		return nil, domain.ErrSelfTrade
	}

	total := marketplace.CalculateTotalPrice(item, im.txFee)
	if valueSent == nil || valueSent.Cmp(total) < 0 {
		return nil, domain.ErrInsufficientFunds
	}

	snap := im.repo.Snapshot(c, itemId)
	seller := item.Seller

	item.Sold = true
	item.Owner = caller.ToLower()
	if err := im.repo.UpdateItem(c, item); err != nil {
		c.WithField("err", err).Error("repo.UpdateItem failed")
		return nil, err
	}

	if err := im.settleBuy(c, item, seller, caller, valueSent, total); err != nil {
		im.repo.Restore(c, snap)
		return nil, err
	}

	im.journal(c, account.ActivityHistoryTypeBuy, caller, seller, item, item.Price)
	im.journal(c, account.ActivityHistoryTypeSold, seller, caller, item, item.Price)
	im.notifySold(c, item, item.Price)
	return item, nil
}

// settleBuy runs the value and custody interactions of a fixed-price
// purchase. The buyer funds the full amount up front; the seller always
// nets the listing price, fees and royalty ride on top, and anything
// beyond the exact total is returned to the buyer.
func (im *impl) settleBuy(c ctx.Ctx, item *marketplace.MarketItem, seller, buyer domain.Address, valueSent, total *big.Int) error {
	cp := &compensator{}

	if err := im.collect(c, cp, buyer, valueSent); err != nil {
		c.WithField("err", err).Error("valueTransfer.Collect failed")
		return err
	}

	fail := func(err error) error {
		cp.unwind(c)
		return err
	}

	if err := im.pay(c, cp, seller, item.Price); err != nil {
		c.WithField("err", err).Error("seller payout failed")
		return fail(err)
	}
	if err := im.pay(c, cp, im.feeReceiver, marketplace.CalculateFee(item.Price, im.txFee)); err != nil {
		c.WithField("err", err).Error("fee payout failed")
		return fail(err)
	}
	if item.IsSecondarySale() {
		if err := im.pay(c, cp, item.Creator, marketplace.CalculateFee(item.Price, item.RoyaltyFeePermillage)); err != nil {
			c.WithField("err", err).Error("royalty payout failed")
			return fail(err)
		}
	}
	if overpaid := new(big.Int).Sub(valueSent, total); overpaid.Sign() > 0 {
		if err := im.pay(c, cp, buyer, overpaid); err != nil {
			c.WithField("err", err).Error("overpayment refund failed")
			return fail(err)
		}
	}

	if err := im.custodian.Transfer(c, item.AssetContract, seller, buyer, item.TokenId); err != nil {
		c.WithField("err", err).Error("custodian.Transfer failed")
		return fail(err)
	}
	return nil
}

func (im *impl) MakeOffer(c ctx.Ctx, itemId uint64, caller domain.Address, valueSent *big.Int) (*marketplace.Offer, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"itemId": itemId,
		"caller": caller,
	})

	if valueSent == nil || valueSent.Sign() <= 0 {
		return nil, domain.ErrZeroOffer
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return nil, err
	}
	if item.Sold {
		return nil, domain.ErrAlreadySold
	}
	if item.Seller.Equals(caller) {
		return nil, domain.ErrSelfTrade
	}

	snap := im.repo.Snapshot(c, itemId)
	prev, prevErr := im.repo.GetOffer(c, itemId, caller)

	offer := &marketplace.Offer{Offerer: caller.ToLower(), Price: new(big.Int).Set(valueSent)}
	if err := im.repo.PutOffer(c, itemId, offer); err != nil {
		c.WithField("err", err).Error("repo.PutOffer failed")
		return nil, err
	}

	cp := &compensator{}
	if err := im.collect(c, cp, caller, valueSent); err != nil {
		c.WithField("err", err).Error("valueTransfer.Collect failed")
		im.repo.Restore(c, snap)
		return nil, err
	}
	// a repeat offer replaces the previous one; the old escrow goes back
	// to the offerer
	if prevErr == nil {
		if err := im.pay(c, cp, caller, prev.Price); err != nil {
			c.WithField("err", err).Error("replaced offer refund failed")
			cp.unwind(c)
			im.repo.Restore(c, snap)
			return nil, err
		}
	}

	im.journal(c, account.ActivityHistoryTypeCreateOffer, caller, item.Seller, item, offer.Price)
	return offer, nil
}

func (im *impl) AcceptOffer(c ctx.Ctx, itemId uint64, offerer, caller domain.Address) (*marketplace.MarketItem, error) {
	c = ctx.WithValues(c, map[string]interface{}{
		"itemId":  itemId,
		"offerer": offerer,
		"caller":  caller,
	})

	im.mu.Lock()
	defer im.mu.Unlock()

	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return nil, err
	}
	if item.Sold {
		return nil, domain.ErrAlreadySold
	}
	if !item.Seller.Equals(caller) {
		return nil, domain.ErrNotSeller
	}
	offer, err := im.repo.GetOffer(c, itemId, offerer)
	if err != nil {
		return nil, err
	}

	snap := im.repo.Snapshot(c, itemId)
	seller := item.Seller

	item.Sold = true
	item.Owner = offer.Offerer
	if err := im.repo.UpdateItem(c, item); err != nil {
		c.WithField("err", err).Error("repo.UpdateItem failed")
		return nil, err
	}
	if err := im.repo.DeleteOffer(c, itemId, offer.Offerer); err != nil {
		c.WithField("err", err).Error("repo.DeleteOffer failed")
		im.repo.Restore(c, snap)
		return nil, err
	}

	if err := im.settleAcceptedOffer(c, item, seller, offer); err != nil {
		im.repo.Restore(c, snap)
		return nil, err
	}

	im.journal(c, account.ActivityHistoryTypeAcceptOffer, seller, offer.Offerer, item, offer.Price)
	im.journal(c, account.ActivityHistoryTypeSold, seller, offer.Offerer, item, offer.Price)
	im.notifySold(c, item, offer.Price)
	return item, nil
}

// settleAcceptedOffer disburses the escrowed offer price. Unlike a
// fixed-price purchase, the fee and the royalty are carved out of the
// escrowed amount, so the seller nets price minus fee minus royalty.
func (im *impl) settleAcceptedOffer(c ctx.Ctx, item *marketplace.MarketItem, seller domain.Address, offer *marketplace.Offer) error {
	fee := marketplace.CalculateFee(offer.Price, im.txFee)
	royalty := domain.Big0
	if item.IsSecondarySale() {
		royalty = marketplace.CalculateFee(offer.Price, item.RoyaltyFeePermillage)
	}
	proceeds := new(big.Int).Sub(offer.Price, fee)
	proceeds.Sub(proceeds, royalty)

	cp := &compensator{}
	fail := func(err error) error {
		cp.unwind(c)
		return err
	}

	if err := im.pay(c, cp, seller, proceeds); err != nil {
		c.WithField("err", err).Error("seller payout failed")
		return fail(err)
	}
	if err := im.pay(c, cp, im.feeReceiver, fee); err != nil {
		c.WithField("err", err).Error("fee payout failed")
		return fail(err)
	}
	if err := im.pay(c, cp, item.Creator, royalty); err != nil {
		c.WithField("err", err).Error("royalty payout failed")
		return fail(err)
	}
	if err := im.custodian.Transfer(c, item.AssetContract, seller, offer.Offerer, item.TokenId); err != nil {
		c.WithField("err", err).Error("custodian.Transfer failed")
		return fail(err)
	}
	return nil
}

func (im *impl) WithdrawOffer(c ctx.Ctx, itemId uint64, caller domain.Address) error {
	c = ctx.WithValues(c, map[string]interface{}{
		"itemId": itemId,
		"caller": caller,
	})

	im.mu.Lock()
	defer im.mu.Unlock()

	// offers outlive the sale of their item, so withdrawal is allowed on
	// sold items as well
	offer, err := im.repo.GetOffer(c, itemId, caller)
	if err != nil {
		return err
	}

	snap := im.repo.Snapshot(c, itemId)
	if err := im.repo.DeleteOffer(c, itemId, offer.Offerer); err != nil {
		c.WithField("err", err).Error("repo.DeleteOffer failed")
		return err
	}
	if err := im.valueTransfer.Pay(c, offer.Offerer, offer.Price); err != nil {
		c.WithField("err", err).Error("escrow refund failed")
		im.repo.Restore(c, snap)
		return err
	}

	if item, itemErr := im.repo.GetItem(c, itemId); itemErr == nil {
		im.journal(c, account.ActivityHistoryTypeWithdrawOffer, caller, item.Seller, item, offer.Price)
	}
	return nil
}

func (im *impl) GetMarketItem(c ctx.Ctx, itemId uint64) (*marketplace.MarketItem, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.GetItem(c, itemId)
}

func (im *impl) MarketItemCount(c ctx.Ctx) (int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.CountItems(c), nil
}

func (im *impl) GetCalculatedTotalPrice(c ctx.Ctx, itemId uint64) (*big.Int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return nil, err
	}
	return marketplace.CalculateTotalPrice(item, im.txFee), nil
}

func (im *impl) GetCalculatedFeeOnFixedPrice(c ctx.Ctx, itemId uint64, permillage int64) (*big.Int, error) {
	if !marketplace.ValidPermillage(permillage) {
		return nil, domain.ErrBadParamInput
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	item, err := im.repo.GetItem(c, itemId)
	if err != nil {
		return nil, err
	}
	return marketplace.CalculateFee(item.Price, permillage), nil
}

func (im *impl) GetCalculatedFeeOnOfferPrice(c ctx.Ctx, itemId uint64, offerPrice *big.Int, permillage int64) (*big.Int, error) {
	if !marketplace.ValidPermillage(permillage) || offerPrice == nil || offerPrice.Sign() < 0 {
		return nil, domain.ErrBadParamInput
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	if _, err := im.repo.GetItem(c, itemId); err != nil {
		return nil, err
	}
	return marketplace.CalculateFee(offerPrice, permillage), nil
}

func (im *impl) GetOffer(c ctx.Ctx, itemId uint64, offerer domain.Address) (*marketplace.Offer, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	offer, err := im.repo.GetOffer(c, itemId, offerer)
	if err == domain.ErrOfferNotFound {
		return &marketplace.Offer{Offerer: domain.EmptyAddress, Price: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (im *impl) GetOfferer(c ctx.Ctx, itemId uint64, index int) (domain.Address, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.repo.OffererAt(c, itemId, index), nil
}

func (im *impl) GetOffers(c ctx.Ctx, itemId uint64) ([]*marketplace.Offer, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.liveOffers(c, itemId)
}

func (im *impl) GetHighestOffer(c ctx.Ctx, itemId uint64) (*marketplace.Offer, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	offers, err := im.liveOffers(c, itemId)
	if err != nil {
		return nil, err
	}
	highest := &marketplace.Offer{Offerer: domain.EmptyAddress, Price: big.NewInt(0)}
	// strict comparison keeps the earliest offer ahead on price ties
	for _, offer := range offers {
		if offer.Price.Cmp(highest.Price) > 0 {
			highest = offer
		}
	}
	return highest, nil
}

// liveOffers lists offers in the order they were first made. The offerer
// index reorders slots on withdrawal, so ordering comes from Offer.Seq.
func (im *impl) liveOffers(c ctx.Ctx, itemId uint64) ([]*marketplace.Offer, error) {
	offers := []*marketplace.Offer{}
	for _, offerer := range im.repo.Offerers(c, itemId) {
		offer, err := im.repo.GetOffer(c, itemId, offerer)
		if err != nil {
			c.WithFields(log.Fields{
				"offerer": offerer,
				"err":     err,
			}).Error("repo.GetOffer failed")
			return nil, err
		}
		offers = append(offers, offer)
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].Seq < offers[j].Seq })
	return offers, nil
}

// journal records a ledger event for the activity feed. Journaling runs
// after the ledger committed and never fails the operation.
func (im *impl) journal(c ctx.Ctx, typ account.ActivityHistoryType, actor, to domain.Address, item *marketplace.MarketItem, price *big.Int) {
	if im.activityRepo == nil {
		return
	}
	activity := &account.ActivityHistory{
		Id:            uuid.New().String(),
		Type:          typ,
		Account:       actor.ToLower(),
		To:            to.ToLower(),
		ItemId:        item.Id,
		AssetContract: item.AssetContract,
		TokenId:       item.TokenId,
		Price:         price.String(),
		Time:          time.Now(),
	}
	if err := im.activityRepo.Insert(c, activity); err != nil {
		c.WithFields(log.Fields{
			"type": typ,
			"err":  err,
		}).Error("activityRepo.Insert failed")
	}
}

func (im *impl) notifySold(c ctx.Ctx, item *marketplace.MarketItem, salePrice *big.Int) {
	if im.notifier == nil {
		return
	}
	if err := im.notifier.NotifySold(c, item, salePrice); err != nil {
		c.WithField("err", err).Error("notifier.NotifySold failed")
	}
}
