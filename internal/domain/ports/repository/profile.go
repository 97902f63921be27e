package repository

import (
	"context"

	"quickscreen/internal/domain/model"
)

// ProfileRepository maps identity references to display attributes.
// Only listings consume it; core logic never branches on profile data.
type ProfileRepository interface {
	FindByIdentityRef(ctx context.Context, tx Tx, ref string) (*model.Profile, error)
}
