package models

// ImageRecord is one image of a collection as exchanged with the image store
type ImageRecord struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	FileName   string `json:"fileName,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	Size       int64  `json:"size,omitempty"`
	ImageOrder *int   `json:"imageOrder,omitempty"`
}

// Order returns the image order, or fallback when the server omitted it
func (r ImageRecord) Order(fallback int) int {
	if r.ImageOrder == nil {
		return fallback
	}
	return *r.ImageOrder
}

// WithOrder returns a copy of the record carrying the given order
func (r ImageRecord) WithOrder(order int) ImageRecord {
	o := order
	r.ImageOrder = &o
	return r
}

// ImagesPayload is the data member of every image listing and upload response
type ImagesPayload struct {
	Images []ImageRecord `json:"images"`
}
