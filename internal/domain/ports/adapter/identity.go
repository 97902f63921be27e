package adapter

import (
	"context"

	"quickscreen/internal/domain/model"
)

// IdentityService resolves a session credential (bearer token) to a stable
// identity reference and role. Session issuance lives outside the core.
type IdentityService interface {
	Resolve(ctx context.Context, credential string) (*model.Identity, error)
}
