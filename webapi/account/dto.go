package account

// DepositRequest represents the request body for requesting a deposit.
type DepositRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,max=64"`
}

// WithdrawRequest represents the request body for requesting a withdrawal.
type WithdrawRequest struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Method  string  `json:"method" validate:"required,max=64"`
	Details string  `json:"details" validate:"max=1024"`
}

// SwapRequest moves profit into the main balance.
type SwapRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}
