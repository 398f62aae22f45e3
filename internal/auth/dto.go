package auth

import (
	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/internal/memberships"
	"github.com/pharmhq/pharmacy-backend/internal/users"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// LoginRequest is the credentials payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OrganizationSummary is the compact organization shape returned to clients
// choosing which pharmacy to work in.
type OrganizationSummary struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	LogoURL   *string        `json:"logo_url,omitempty"`
	Role      enums.UserRole `json:"role"`
	BranchIDs []uuid.UUID    `json:"branch_ids,omitempty"`
}

// LoginResponse carries the issued tokens plus the caller's organizations.
type LoginResponse struct {
	AccessToken   string                `json:"access_token"`
	RefreshToken  string                `json:"refresh_token"`
	Organizations []OrganizationSummary `json:"organizations"`
	User          *users.UserDTO        `json:"user"`
}

// MeResponse is the session profile: the caller plus every organization they
// belong to.
type MeResponse struct {
	User          *users.UserDTO        `json:"user"`
	Organizations []OrganizationSummary `json:"organizations"`
}

// RefreshRequest exchanges an expired access token + refresh token pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse carries the freshly rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func summaryFromMembership(m memberships.MembershipWithOrg) OrganizationSummary {
	return OrganizationSummary{
		ID:        m.OrganizationID,
		Name:      m.OrgName,
		LogoURL:   m.OrgLogoURL,
		Role:      m.Role,
		BranchIDs: append([]uuid.UUID(nil), m.BranchIDs...),
	}
}
