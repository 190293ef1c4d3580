package http

// APIResponse is the envelope every JSON endpoint except market gains uses.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"amount"`
	Message string                 `json:"message,omitempty" example:"amount is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse wraps list endpoints.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
