package marketplace

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mintybay/goapi/domain"
)

func TestCalculateFee(t *testing.T) {
	require.Equal(t, int64(500), CalculateFee(big.NewInt(20000), 25).Int64())
	require.Equal(t, int64(660), CalculateFee(big.NewInt(20000), 33).Int64())
	// truncates toward zero
	require.Equal(t, int64(0), CalculateFee(big.NewInt(39), 25).Int64())
	require.Equal(t, int64(0), CalculateFee(big.NewInt(20000), 0).Int64())
}

func TestCalculateTotalPrice(t *testing.T) {
	item := &MarketItem{
		Seller:               domain.Address("0xa"),
		Creator:              domain.Address("0xa"),
		Price:                big.NewInt(20000),
		RoyaltyFeePermillage: 20,
	}

	// primary sale owes no royalty
	require.False(t, item.IsSecondarySale())
	require.Equal(t, int64(20500), CalculateTotalPrice(item, 25).Int64())

	item.Seller = domain.Address("0xb")
	require.True(t, item.IsSecondarySale())
	require.Equal(t, int64(20900), CalculateTotalPrice(item, 25).Int64())
}

func TestValidPermillage(t *testing.T) {
	require.True(t, ValidPermillage(0))
	require.True(t, ValidPermillage(25))
	require.True(t, ValidPermillage(1000))
	require.False(t, ValidPermillage(-1))
	require.False(t, ValidPermillage(1001))
}
