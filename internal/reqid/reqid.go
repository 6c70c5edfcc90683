// Package reqid carries a per-request identifier through context.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header and gRPC metadata key that carries the id.
const Header = "X-Request-Id"

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(parent, key{}, id), id
}

// WithID stores a caller-supplied id, falling back to a generated one when
// id is not a valid UUID.
func WithID(parent context.Context, id string) (context.Context, string) {
	if _, err := uuid.Parse(id); err != nil {
		return NewContext(parent)
	}
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
