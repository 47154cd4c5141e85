package marketplace

import (
	"math/big"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
)

// MarketItem is one listing event of an asset. Relisting the same asset
// creates a new MarketItem with a fresh id; items are never deleted.
type MarketItem struct {
	Id                   uint64         `json:"id"`
	AssetContract        domain.Address `json:"assetContract"`
	TokenId              domain.TokenId `json:"tokenId"`
	Seller               domain.Address `json:"seller"`
	Creator              domain.Address `json:"creator"`
	Owner                domain.Address `json:"owner"`
	Price                *big.Int       `json:"price"`
	RoyaltyFeePermillage int64          `json:"royaltyFeePermillage"`
	Sold                 bool           `json:"sold"`
}

// IsSecondarySale reports whether selling this item owes a royalty,
// i.e. the seller is not the original creator.
func (m *MarketItem) IsSecondarySale() bool {
	return !m.Seller.Equals(m.Creator)
}

func (m *MarketItem) Copy() *MarketItem {
	cp := *m
	cp.Price = new(big.Int).Set(m.Price)
	return &cp
}

// Offer is a standing bid whose price is held in escrow until the offer
// is accepted or withdrawn. At most one live offer per (item, offerer).
// Seq is the repo-assigned insertion order of the first offer by an
// offerer; a replacing offer keeps it, so price ties resolve to the
// earliest offerer.
type Offer struct {
	Offerer domain.Address `json:"offerer"`
	Price   *big.Int       `json:"price"`
	Seq     uint64         `json:"-"`
}

func (o *Offer) Copy() *Offer {
	return &Offer{Offerer: o.Offerer, Price: new(big.Int).Set(o.Price), Seq: o.Seq}
}

// CreateMarketItemPayload carries the listing request of an asset owner.
type CreateMarketItemPayload struct {
	AssetContract        domain.Address `json:"assetContract" validate:"required"`
	TokenId              domain.TokenId `json:"tokenId" validate:"required"`
	Price                string         `json:"price" validate:"required"`
	RoyaltyFeePermillage int64          `json:"royaltyFeePermillage"`
}

// Usecase is the marketplace ledger. Every mutating call executes as one
// indivisible unit: either all state changes and value/custody transfers
// commit, or none do.
type Usecase interface {
	CreateMarketItem(c ctx.Ctx, caller domain.Address, payload *CreateMarketItemPayload) (*MarketItem, error)
	BuyMarketItem(c ctx.Ctx, itemId uint64, caller domain.Address, valueSent *big.Int) (*MarketItem, error)

	MakeOffer(c ctx.Ctx, itemId uint64, caller domain.Address, valueSent *big.Int) (*Offer, error)
	AcceptOffer(c ctx.Ctx, itemId uint64, offerer, caller domain.Address) (*MarketItem, error)
	WithdrawOffer(c ctx.Ctx, itemId uint64, caller domain.Address) error

	GetMarketItem(c ctx.Ctx, itemId uint64) (*MarketItem, error)
	MarketItemCount(c ctx.Ctx) (int, error)

	// GetCalculatedTotalPrice returns the exact amount a buyer has to send:
	// price + transaction fee, plus the royalty fee on secondary sales.
	GetCalculatedTotalPrice(c ctx.Ctx, itemId uint64) (*big.Int, error)
	GetCalculatedFeeOnFixedPrice(c ctx.Ctx, itemId uint64, permillage int64) (*big.Int, error)
	GetCalculatedFeeOnOfferPrice(c ctx.Ctx, itemId uint64, offerPrice *big.Int, permillage int64) (*big.Int, error)

	// GetOffer returns a zero-price offer when no live offer exists,
	// mirroring the zero-value read semantics of deleted offers.
	GetOffer(c ctx.Ctx, itemId uint64, offerer domain.Address) (*Offer, error)
	// GetOfferer returns the offerer address at the given index slot, or the
	// empty address when the slot is unset.
	GetOfferer(c ctx.Ctx, itemId uint64, index int) (domain.Address, error)
	GetOffers(c ctx.Ctx, itemId uint64) ([]*Offer, error)
	GetHighestOffer(c ctx.Ctx, itemId uint64) (*Offer, error)
}

// Repo holds the ledger state: the append-only market item arena, the offer
// book and the per-item offerer index. Implementations are not safe for
// concurrent use; the usecase serializes access.
type Repo interface {
	// AppendItem assigns the next sequential 1-based id and stores the item.
	AppendItem(c ctx.Ctx, item *MarketItem) (uint64, error)
	GetItem(c ctx.Ctx, itemId uint64) (*MarketItem, error)
	UpdateItem(c ctx.Ctx, item *MarketItem) error
	CountItems(c ctx.Ctx) int
	// LatestItemByAsset returns the most recent listing of an asset, or
	// domain.ErrNotFound if it has never been listed.
	LatestItemByAsset(c ctx.Ctx, assetContract domain.Address, tokenId domain.TokenId) (*MarketItem, error)

	GetOffer(c ctx.Ctx, itemId uint64, offerer domain.Address) (*Offer, error)
	PutOffer(c ctx.Ctx, itemId uint64, offer *Offer) error
	DeleteOffer(c ctx.Ctx, itemId uint64, offerer domain.Address) error
	Offerers(c ctx.Ctx, itemId uint64) []domain.Address
	OffererAt(c ctx.Ctx, itemId uint64, index int) domain.Address

	// Snapshot captures the item and its whole offer book so a failed
	// settlement can be rolled back without partial effects.
	Snapshot(c ctx.Ctx, itemId uint64) *Snapshot
	Restore(c ctx.Ctx, snapshot *Snapshot)
}

// Snapshot is a deep copy of one item's mutable state.
type Snapshot struct {
	Item     *MarketItem
	Offers   []*Offer
	Offerers []domain.Address
}
