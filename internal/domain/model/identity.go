package model

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
)

// Identity is the stable reference the core keeps for a session principal.
// Resolution from tokens/sessions happens in an external identity service;
// the core only carries the opaque Ref and the role.
type Identity struct {
	Ref  string
	Role Role
}

// Profile holds display attributes resolved from an identity reference.
// The core never branches on these; they exist for listings only.
type Profile struct {
	IdentityRef string
	Name        string
	Email       string
}
