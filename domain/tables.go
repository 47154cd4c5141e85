package domain

// Table is a mongo collection name
type Table string

const (
	TableAccounts   Table = "accounts"
	TableActivities Table = "activities"
	TableBalances   Table = "balances"
)
