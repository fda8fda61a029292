package responses

// Message is the body of every non-2xx API response
type Message struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
