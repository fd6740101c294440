package models

import "time"

// Contract is one normalized customer purchase record. CancellationDate is
// nil for contracts that were never cancelled; Age is -1 when the source row
// carried no usable age.
type Contract struct {
	ContractDate     time.Time
	CancellationDate *time.Time
	Price            float64
	ProductName      string
	Gender           string
	Age              int
	Cancelled        bool
	AgeGroup         AgeGroup
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type AgeGenderCount struct {
	AgeGroup  string `json:"age_group"`
	Gender    string `json:"gender"`
	Contracts int    `json:"contracts"`
}

type ProductChurn struct {
	ProductName    string  `json:"product_name"`
	TotalContracts int     `json:"total_contracts"`
	Cancellations  int     `json:"cancellations"`
	ChurnRatePct   float64 `json:"churn_rate_pct"`
}

// Churn status labels for the age-distribution overlay.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

type AgeChurnBin struct {
	AgeFrom int     `json:"age_from"`
	AgeTo   int     `json:"age_to"`
	Status  string  `json:"status"`
	Percent float64 `json:"percent"`
}
