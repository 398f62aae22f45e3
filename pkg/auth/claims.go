package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// ActiveOrgID and Role are nil/empty when the user has not selected an
// organization yet (fresh registration with no memberships).
type AccessTokenPayload struct {
	UserID      uuid.UUID
	ActiveOrgID *uuid.UUID
	Role        *enums.UserRole
	BranchIDs   []uuid.UUID
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID       `json:"user_id"`
	ActiveOrgID *uuid.UUID      `json:"active_org_id,omitempty"`
	Role        *enums.UserRole `json:"role,omitempty"`
	BranchIDs   []uuid.UUID     `json:"branch_ids,omitempty"`
	jwt.RegisteredClaims
}
