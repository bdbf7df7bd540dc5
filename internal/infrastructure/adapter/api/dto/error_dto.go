package dto

// ErrorResponse represents a standardized error response for the API.
// Needed and Balance are set only on insufficient-credit rejections so the
// editor can render a top-up or upgrade prompt.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Needed  int64  `json:"needed,omitempty"`
	Balance int64  `json:"balance,omitempty"`
}
