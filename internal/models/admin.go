package models

type AnalyticsSummary struct {
	TotalUsers        int64   `json:"totalUsers"`
	ActiveWallets     int64   `json:"activeWallets"`
	TotalTransactions int64   `json:"totalTransactions"`
	TotalVolume       float64 `json:"totalVolume"`
}

// ChartPoint — точка графика (день -> значение).
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type TopUser struct {
	UserID           string  `json:"userId"`
	Username         string  `json:"username"`
	TransactionCount int64   `json:"transactionCount"`
	Volume           float64 `json:"volume"`
}
