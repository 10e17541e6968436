package transfer

type CreditCheck struct {
	Sufficient bool   `json:"sufficient"`
	Balance    int    `json:"balance"`
	Required   int    `json:"required"`
	Action     string `json:"action"`
}

type CreditMovement struct {
	Success       bool   `json:"success"`
	NewBalance    int    `json:"new_balance"`
	TransactionID int64  `json:"transaction_id"`
	Reference     string `json:"reference"`
}
