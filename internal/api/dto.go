package api

// StatusResponse acknowledges a request that carries no other payload.
type StatusResponse struct {
	Status string `json:"status" example:"accepted" validate:"required"`
}
