package storage

import (
	"context"
	"fmt"

	supabase "github.com/nedpals/supabase-go"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/repository"
)

// Ensure interface compliance:
var _ repository.ProfileRepository = (*SupabaseProfileRepo)(nil)

// SupabaseProfileRepo reads display attributes from the hosted profiles
// table via the supabase-go SDK. Profile CRUD lives outside the core; this
// is a read-only collaborator.
type SupabaseProfileRepo struct {
	client *supabase.Client
}

func NewSupabaseProfileRepo(supabaseURL, supabaseKey string) (*SupabaseProfileRepo, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key are required")
	}
	return &SupabaseProfileRepo{client: supabase.CreateClient(supabaseURL, supabaseKey)}, nil
}

type profileRow struct {
	IdentityRef string `json:"identity_ref"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

func (r *SupabaseProfileRepo) FindByIdentityRef(ctx context.Context, _ repository.Tx, ref string) (*model.Profile, error) {
	var rows []profileRow
	err := r.client.DB.From("profiles").Select("identity_ref", "name", "email").Eq("identity_ref", ref).Execute(&rows)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &model.Profile{IdentityRef: rows[0].IdentityRef, Name: rows[0].Name, Email: rows[0].Email}, nil
}
