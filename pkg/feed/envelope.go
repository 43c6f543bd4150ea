package feed

import (
	"encoding/json"
	"fmt"
	"io"
)

// Envelope is the response body of the feed API:
//
//	{"status":200,"message":"ok","data":{"data":[...]}}
//
// A response without the outer data object is an empty page.
type Envelope[T any] struct {
	Status  int         `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    *Payload[T] `json:"data,omitempty"`
}

// Payload is the inner data object of an Envelope.
type Payload[T any] struct {
	Data []T `json:"data"`
}

// NewEnvelope wraps items in an envelope. A nil slice is written as [].
func NewEnvelope[T any](items []T) Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return Envelope[T]{
		Status:  200,
		Message: "ok",
		Data:    &Payload[T]{Data: items},
	}
}

// Items returns the page carried by e, never nil.
func (e Envelope[T]) Items() []T {
	if e.Data == nil || e.Data.Data == nil {
		return []T{}
	}
	return e.Data.Data
}

// DecodeEnvelope reads an envelope from r and returns its page.
func DecodeEnvelope[T any](r io.Reader) ([]T, error) {
	var env Envelope[T]
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		if err == io.EOF {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to decode feed envelope: %w", err)
	}
	return env.Items(), nil
}
