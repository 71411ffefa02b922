package frontend

// PostRequest is the body of POST /v1/broadcasts.
type PostRequest struct {
	Message *string `json:"message"`
}

// SendRequest is the body of POST /v1/messages.
type SendRequest struct {
	To      string  `json:"to"`
	Message *string `json:"message"`
}
