package models

// OrderEntry assigns a display position to one image
type OrderEntry struct {
	ID         int64 `json:"id" binding:"required,gt=0"`
	ImageOrder int   `json:"imageOrder" binding:"gte=0"`
}

// SaveOrderRequest attaches images to a raffle in the given order.
// Sent by whatever submits the surrounding raffle form.
type SaveOrderRequest struct {
	Images []OrderEntry `json:"images" binding:"required,dive"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
