package marketplace

import (
	"math/big"

	"github.com/mintybay/goapi/domain"
)

// Fee computation is pure so buyers and sellers can precompute exact
// amounts before submitting value. All divisions truncate toward zero;
// truncation remainders stay with the seller proceeds.

// CalculateFee returns amount * permillage / 1000.
func CalculateFee(amount *big.Int, permillage int64) *big.Int {
	fee := new(big.Int).Mul(amount, big.NewInt(permillage))
	return fee.Div(fee, domain.Big1000)
}

// CalculateTotalPrice returns the exact amount a buyer has to send for a
// fixed-price purchase: the listing price plus the transaction fee, plus
// the creator royalty when the sale is a resale.
func CalculateTotalPrice(item *MarketItem, transactionFeePermillage int64) *big.Int {
	total := new(big.Int).Set(item.Price)
	total.Add(total, CalculateFee(item.Price, transactionFeePermillage))
	if item.IsSecondarySale() {
		total.Add(total, CalculateFee(item.Price, item.RoyaltyFeePermillage))
	}
	return total
}

// ValidPermillage reports whether a per-mille rate is within [0, 1000].
func ValidPermillage(permillage int64) bool {
	return permillage >= 0 && permillage <= 1000
}
