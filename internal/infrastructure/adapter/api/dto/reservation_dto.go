package dto

// ReserveRequest represents the API request for placing a credit hold
type ReserveRequest struct {
	TaskID  string  `json:"taskId" binding:"required"`
	Seconds float64 `json:"seconds" binding:"required,gt=0"`
}

// ReserveResponse represents the API response for a placed credit hold
type ReserveResponse struct {
	TaskID          string `json:"taskId"`
	UserID          string `json:"userId"`
	ReservedCredits int64  `json:"reservedCredits"`
	Balance         int64  `json:"balance"`
}

// SettleRequest represents the API request for settling a reservation
// against the actual generated duration
type SettleRequest struct {
	UsedSeconds float64 `json:"usedSeconds" binding:"gte=0"`
}

// SettleResponse represents the API response for a settled reservation
type SettleResponse struct {
	TaskID        string `json:"taskId"`
	UsedCredits   int64  `json:"usedCredits"`
	RefundCredits int64  `json:"refundCredits"`
}

// RefundResponse represents the API response for a fully refunded reservation
type RefundResponse struct {
	TaskID        string `json:"taskId"`
	RefundCredits int64  `json:"refundCredits"`
}
