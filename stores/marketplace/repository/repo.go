package repository

import (
	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/sequence"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
)

type assetKey struct {
	contract domain.Address
	tokenId  domain.TokenId
}

// impl keeps the whole ledger in memory: the append-only item arena keyed
// by a monotonic 1-based id, the offer book keyed by (itemId, offerer) and
// the per-item offerer index. Methods are not safe for concurrent use; the
// usecase serializes access around them.
type impl struct {
	seq      *sequence.Sequence
	offerSeq *sequence.Sequence
	items    map[uint64]*marketplace.MarketItem
	offers   map[uint64]map[domain.Address]*marketplace.Offer
	offerers map[uint64][]domain.Address
	latest   map[assetKey]uint64
}

// New creates new marketplace repo
func New() marketplace.Repo {
	return &impl{
		seq:      sequence.NewSequence(),
		offerSeq: sequence.NewSequence(),
		items:    map[uint64]*marketplace.MarketItem{},
		offers:   map[uint64]map[domain.Address]*marketplace.Offer{},
		offerers: map[uint64][]domain.Address{},
		latest:   map[assetKey]uint64{},
	}
}

func (im *impl) AppendItem(c ctx.Ctx, item *marketplace.MarketItem) (uint64, error) {
	id := im.seq.Next()
	stored := item.Copy()
	stored.Id = id
	im.items[id] = stored
	im.latest[assetKey{stored.AssetContract.ToLower(), stored.TokenId}] = id
	return id, nil
}

func (im *impl) GetItem(c ctx.Ctx, itemId uint64) (*marketplace.MarketItem, error) {
	item, ok := im.items[itemId]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return item.Copy(), nil
}

func (im *impl) UpdateItem(c ctx.Ctx, item *marketplace.MarketItem) error {
	if _, ok := im.items[item.Id]; !ok {
		return domain.ErrItemNotFound
	}
	im.items[item.Id] = item.Copy()
	return nil
}

func (im *impl) CountItems(c ctx.Ctx) int {
	return int(im.seq.Current())
}

func (im *impl) LatestItemByAsset(c ctx.Ctx, assetContract domain.Address, tokenId domain.TokenId) (*marketplace.MarketItem, error) {
	id, ok := im.latest[assetKey{assetContract.ToLower(), tokenId}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return im.GetItem(c, id)
}

func (im *impl) GetOffer(c ctx.Ctx, itemId uint64, offerer domain.Address) (*marketplace.Offer, error) {
	offer, ok := im.offers[itemId][offerer.ToLower()]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return offer.Copy(), nil
}

func (im *impl) PutOffer(c ctx.Ctx, itemId uint64, offer *marketplace.Offer) error {
	key := offer.Offerer.ToLower()
	if im.offers[itemId] == nil {
		im.offers[itemId] = map[domain.Address]*marketplace.Offer{}
	}
	stored := offer.Copy()
	if prev, exists := im.offers[itemId][key]; exists {
		// a replacing offer keeps the original insertion order
		stored.Seq = prev.Seq
	} else {
		stored.Seq = im.offerSeq.Next()
		im.offerers[itemId] = append(im.offerers[itemId], key)
	}
	im.offers[itemId][key] = stored
	return nil
}

func (im *impl) DeleteOffer(c ctx.Ctx, itemId uint64, offerer domain.Address) error {
	key := offerer.ToLower()
	if _, ok := im.offers[itemId][key]; !ok {
		return domain.ErrOfferNotFound
	}
	delete(im.offers[itemId], key)

	// swap-remove keeps index maintenance O(1); slot order is not part of
	// the read contract. Insertion order rides on Offer.Seq and survives
	// the reordering.
	idx := im.offerers[itemId]
	for i, addr := range idx {
		if addr.Equals(key) {
			last := len(idx) - 1
			idx[i] = idx[last]
			im.offerers[itemId] = idx[:last]
			break
		}
	}
	return nil
}

func (im *impl) Offerers(c ctx.Ctx, itemId uint64) []domain.Address {
	idx := im.offerers[itemId]
	out := make([]domain.Address, len(idx))
	copy(out, idx)
	return out
}

func (im *impl) OffererAt(c ctx.Ctx, itemId uint64, index int) domain.Address {
	idx := im.offerers[itemId]
	if index < 0 || index >= len(idx) {
		return domain.EmptyAddress
	}
	return idx[index]
}

func (im *impl) Snapshot(c ctx.Ctx, itemId uint64) *marketplace.Snapshot {
	snap := &marketplace.Snapshot{}
	if item, ok := im.items[itemId]; ok {
		snap.Item = item.Copy()
	}
	for _, offer := range im.offers[itemId] {
		snap.Offers = append(snap.Offers, offer.Copy())
	}
	snap.Offerers = make([]domain.Address, len(im.offerers[itemId]))
	copy(snap.Offerers, im.offerers[itemId])
	return snap
}

func (im *impl) Restore(c ctx.Ctx, snapshot *marketplace.Snapshot) {
	if snapshot.Item == nil {
		return
	}
	id := snapshot.Item.Id
	im.items[id] = snapshot.Item.Copy()
	offers := map[domain.Address]*marketplace.Offer{}
	for _, offer := range snapshot.Offers {
		offers[offer.Offerer.ToLower()] = offer.Copy()
	}
	im.offers[id] = offers
	offerers := make([]domain.Address, len(snapshot.Offerers))
	copy(offerers, snapshot.Offerers)
	im.offerers[id] = offerers
}
