package httpServices

// SendResponse mirrors the provider's bulk messaging response body.
type SendResponse struct {
	SMSMessageData SMSMessageData `json:"SMSMessageData"`
}

// SMSMessageData carries the human-readable summary and the per-recipient
// delivery detail.
type SMSMessageData struct {
	Message    string      `json:"Message"`
	Recipients []Recipient `json:"Recipients"`
}

// Recipient is the provider's per-number send status. StatusCode 101/102
// mean accepted; 403 and friends mean the message was rejected or silently
// queued (typically an unapproved sender id).
type Recipient struct {
	Number     string `json:"number"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	MessageID  string `json:"messageId"`
	Cost       string `json:"cost"`
}
