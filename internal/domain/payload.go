package domain

import "time"

// Payload is an arbitrary JSON object received from a webhook or mobile client.
type Payload struct {
	ID         string                 `json:"id"`
	Data       map[string]interface{} `json:"data"`
	ReceivedAt time.Time              `json:"receivedAt"`
	Processed  bool                   `json:"processed"`
	Source     string                 `json:"source"`
}
