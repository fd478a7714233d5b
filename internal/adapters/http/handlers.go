package http

// MessageResponse is the body of every non-collection JSON response
type MessageResponse struct {
	Message string `json:"message"`
}
