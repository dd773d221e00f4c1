// Package codec implements the serialization-codec external collaborator
// used by the sample "serializable" concept (internal/samples/serializable):
// encode(value) -> bytes, decode(bytes) -> value. It is not part of the
// core kernel.
package codec

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Codec encodes and decodes arbitrary values.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSON is the default Codec, backing every durable/exported representation
// with plain encoding/json.
type JSON struct{}

func (JSON) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }

// Retrying wraps a Codec so a transient Encode/Decode failure (e.g. a
// codec backed by an external service) is retried with exponential
// backoff.
type Retrying struct {
	Codec Codec
	// NewBackOff returns a fresh backoff policy for each call; if nil, a
	// default exponential backoff is used: each wait is capped at 1s, with
	// at most 3 retries (4 attempts in all).
	NewBackOff func() backoff.BackOff
}

func (r Retrying) policy() backoff.BackOff {
	if r.NewBackOff != nil {
		return r.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = time.Second
	return backoff.WithMaxRetries(b, 3)
}

func (r Retrying) Encode(v any) ([]byte, error) {
	var out []byte
	op := func() error {
		b, err := r.Codec.Encode(v)
		if err != nil {
			return err
		}
		out = b
		return nil
	}
	err := backoff.Retry(op, r.policy())
	return out, err
}

func (r Retrying) Decode(data []byte, v any) error {
	op := func() error { return r.Codec.Decode(data, v) }
	return backoff.Retry(op, r.policy())
}

// WithContext wraps the backoff policy b so that retrying stops once ctx is
// done, grounded on backoff/v4's context-aware helper.
func WithContext(ctx context.Context, b backoff.BackOff) backoff.BackOff {
	return backoff.WithContext(b, ctx)
}
