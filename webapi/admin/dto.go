package admin

// KYCRequest sets an account's verification status.
type KYCRequest struct {
	Status string `json:"status" validate:"required,oneof=unverified pending verified rejected"`
}

// FrozenRequest freezes or unfreezes an account.
type FrozenRequest struct {
	Frozen *bool `json:"frozen" validate:"required"`
}

// AdjustRequest credits (positive) or debits (negative) a balance.
type AdjustRequest struct {
	Bucket string  `json:"bucket" validate:"required,oneof=main profit"`
	Amount float64 `json:"amount" validate:"required,ne=0"`
	Note   string  `json:"note" validate:"max=1024"`
}

// BotTradeRequest books a simulated trade.
type BotTradeRequest struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Outcome string  `json:"outcome" validate:"required,oneof=win loss"`
}

// StatusRequest moves a transaction to a new status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved completed rejected failed"`
	Reason string `json:"reason" validate:"max=1024"`
}

// ReasonRequest carries an optional free-text reason.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=1024"`
}
