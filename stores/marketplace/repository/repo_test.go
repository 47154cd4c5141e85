package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
	"github.com/mintybay/goapi/domain/marketplace"
)

func newItem(seller domain.Address) *marketplace.MarketItem {
	return &marketplace.MarketItem{
		AssetContract:        "0xAsset",
		TokenId:              "1",
		Seller:               seller,
		Creator:              seller,
		Owner:                seller,
		Price:                big.NewInt(100),
		RoyaltyFeePermillage: 25,
	}
}

func TestItemArena(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	repo := New()

	id, err := repo.AppendItem(c, newItem("0xAlice"))
	req.NoError(err)
	req.Equal(uint64(1), id)

	id, err = repo.AppendItem(c, newItem("0xBob"))
	req.NoError(err)
	req.Equal(uint64(2), id)
	req.Equal(2, repo.CountItems(c))

	item, err := repo.GetItem(c, 1)
	req.NoError(err)
	req.Equal(domain.Address("0xAlice"), item.Seller)

	_, err = repo.GetItem(c, 3)
	req.ErrorIs(err, domain.ErrItemNotFound)

	// stored items are isolated from caller mutation
	item.Price.SetInt64(999)
	again, err := repo.GetItem(c, 1)
	req.NoError(err)
	req.Equal(int64(100), again.Price.Int64())

	again.Sold = true
	req.NoError(repo.UpdateItem(c, again))
	updated, err := repo.GetItem(c, 1)
	req.NoError(err)
	req.True(updated.Sold)
}

func TestLatestItemByAsset(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	repo := New()

	_, err := repo.LatestItemByAsset(c, "0xAsset", "1")
	req.ErrorIs(err, domain.ErrNotFound)

	_, err = repo.AppendItem(c, newItem("0xAlice"))
	req.NoError(err)
	_, err = repo.AppendItem(c, newItem("0xBob"))
	req.NoError(err)

	latest, err := repo.LatestItemByAsset(c, "0xASSET", "1")
	req.NoError(err)
	req.Equal(uint64(2), latest.Id)
	req.Equal(domain.Address("0xBob"), latest.Seller)
}

func TestOfferBook(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	repo := New()

	_, err := repo.GetOffer(c, 1, "0xCarol")
	req.ErrorIs(err, domain.ErrOfferNotFound)

	req.NoError(repo.PutOffer(c, 1, &marketplace.Offer{Offerer: "0xCarol", Price: big.NewInt(10)}))
	req.NoError(repo.PutOffer(c, 1, &marketplace.Offer{Offerer: "0xDave", Price: big.NewInt(20)}))

	// replacing an offer keeps a single index slot
	req.NoError(repo.PutOffer(c, 1, &marketplace.Offer{Offerer: "0xCAROL", Price: big.NewInt(15)}))
	req.Len(repo.Offerers(c, 1), 2)

	offer, err := repo.GetOffer(c, 1, "0xCarol")
	req.NoError(err)
	req.Equal(int64(15), offer.Price.Int64())

	// the replacement keeps the original insertion order
	daveOffer, err := repo.GetOffer(c, 1, "0xDave")
	req.NoError(err)
	req.Less(offer.Seq, daveOffer.Seq)

	req.Equal(domain.Address("0xcarol"), repo.OffererAt(c, 1, 0))
	req.Equal(domain.Address("0xdave"), repo.OffererAt(c, 1, 1))
	req.Equal(domain.EmptyAddress, repo.OffererAt(c, 1, 2))

	req.NoError(repo.DeleteOffer(c, 1, "0xCarol"))
	req.ErrorIs(repo.DeleteOffer(c, 1, "0xCarol"), domain.ErrOfferNotFound)
	_, err = repo.GetOffer(c, 1, "0xCarol")
	req.ErrorIs(err, domain.ErrOfferNotFound)
	req.Len(repo.Offerers(c, 1), 1)
	req.Equal(domain.Address("0xdave"), repo.OffererAt(c, 1, 0))
}

func TestSnapshotRestore(t *testing.T) {
	req := require.New(t)
	c := ctx.Background()
	repo := New()

	id, err := repo.AppendItem(c, newItem("0xAlice"))
	req.NoError(err)
	req.NoError(repo.PutOffer(c, id, &marketplace.Offer{Offerer: "0xCarol", Price: big.NewInt(10)}))

	snap := repo.Snapshot(c, id)

	item, _ := repo.GetItem(c, id)
	item.Sold = true
	item.Owner = "0xBuyer"
	req.NoError(repo.UpdateItem(c, item))
	req.NoError(repo.DeleteOffer(c, id, "0xCarol"))
	req.NoError(repo.PutOffer(c, id, &marketplace.Offer{Offerer: "0xDave", Price: big.NewInt(30)}))

	repo.Restore(c, snap)

	item, err = repo.GetItem(c, id)
	req.NoError(err)
	req.False(item.Sold)
	req.Equal(domain.Address("0xAlice"), item.Owner)

	offer, err := repo.GetOffer(c, id, "0xCarol")
	req.NoError(err)
	req.Equal(int64(10), offer.Price.Int64())
	_, err = repo.GetOffer(c, id, "0xDave")
	req.ErrorIs(err, domain.ErrOfferNotFound)
	req.Len(repo.Offerers(c, id), 1)
}
