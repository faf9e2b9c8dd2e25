package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the display form of a user reference. The metrics core stores
// only opaque ids; resolution happens at read time through a Resolver.
type Identity struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
}

// Resolver resolves user ids to display identities. Implemented by the
// identity service client; a static implementation is provided for tests
// and local development.
type Resolver interface {
	Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Identity, error)
}

// StaticResolver resolves from a fixed map. Unknown ids resolve to an
// identity with an empty display name so callers never fail a read because
// the directory is behind.
type StaticResolver struct {
	users map[uuid.UUID]Identity
}

func NewStaticResolver(users map[uuid.UUID]Identity) *StaticResolver {
	if users == nil {
		users = map[uuid.UUID]Identity{}
	}
	return &StaticResolver{users: users}
}

func (r *StaticResolver) Resolve(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]Identity, error) {
	out := make(map[uuid.UUID]Identity, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if u, ok := r.users[id]; ok {
			out[id] = u
		} else {
			out[id] = Identity{ID: id}
		}
	}
	return out, nil
}
