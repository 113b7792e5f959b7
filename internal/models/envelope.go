package models

import "encoding/json"

// Envelope is the response wrapper used by every backend endpoint
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
	Timestamp string `json:"timestamp"`
}

// RawEnvelope defers decoding of the payload until success is known
type RawEnvelope = Envelope[json.RawMessage]
