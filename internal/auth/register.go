package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/internal/branches"
	"github.com/pharmhq/pharmacy-backend/internal/memberships"
	"github.com/pharmhq/pharmacy-backend/internal/orgs"
	"github.com/pharmhq/pharmacy-backend/internal/staff"
	"github.com/pharmhq/pharmacy-backend/internal/users"
	"github.com/pharmhq/pharmacy-backend/pkg/config"
	"github.com/pharmhq/pharmacy-backend/pkg/db"
	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/security"
)

// RegisterRequest contains the payload required for onboarding a new pharmacy.
type RegisterRequest struct {
	DisplayName      string  `json:"display_name" validate:"required"`
	Email            string  `json:"email" validate:"required,email"`
	Password         string  `json:"password" validate:"required,min=8"`
	Phone            *string `json:"phone,omitempty"`
	OrganizationName string  `json:"organization_name" validate:"required"`
	Currency         string  `json:"currency,omitempty"`
	BranchName       string  `json:"branch_name" validate:"required"`
	BranchAddress    string  `json:"branch_address" validate:"required"`
	AcceptTOS        bool    `json:"accept_tos"`
}

// RegisterResult identifies the records created during onboarding.
type RegisterResult struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	BranchID       uuid.UUID `json:"branch_id"`
}

// RegisterService handles the onboarding transaction: the founding user, the
// organization, its first branch, and the owner membership are created
// together or not at all.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	orgName := strings.TrimSpace(req.OrganizationName)
	if orgName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name is required")
	}
	if strings.TrimSpace(req.BranchName) == "" || strings.TrimSpace(req.BranchAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name and address are required")
	}
	if !req.AcceptTOS {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accept_tos must be true")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter ISO code")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var result RegisterResult
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		orgRepo := orgs.NewRepository(tx)
		branchRepo := branches.NewRepository(tx)
		membershipRepo := memberships.NewRepository(tx)
		staffRepo := staff.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			DisplayName:  strings.TrimSpace(req.DisplayName),
			Phone:        req.Phone,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		org := &models.Organization{
			Name:     orgName,
			Currency: currency,
			OwnerID:  user.ID,
		}
		if err := orgRepo.CreateWithTx(tx, org); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create organization")
		}

		branch := &models.Branch{
			OrganizationID: org.ID,
			Name:           strings.TrimSpace(req.BranchName),
			Address:        strings.TrimSpace(req.BranchAddress),
		}
		if err := branchRepo.CreateWithTx(tx, branch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create branch")
		}

		now := time.Now().UTC()
		// Owners carry an empty branch scope, which grants every branch.
		if _, err := membershipRepo.UpsertMembershipWithTx(tx, memberships.CreateMembershipParams{
			UserID:         user.ID,
			OrganizationID: org.ID,
			Role:           enums.UserRoleOwner,
			JoinedAt:       now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create membership")
		}

		if err := staffRepo.UpsertProfileWithTx(tx, staff.UpsertProfileParams{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Email:          email,
			DisplayName:    strings.TrimSpace(req.DisplayName),
			Role:           enums.UserRoleOwner,
			JoinedAt:       now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create staff profile")
		}

		if err := userRepo.UpdateLastActiveOrg(ctx, user.ID, org.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remember active organization")
		}

		result = RegisterResult{
			UserID:         user.ID,
			OrganizationID: org.ID,
			BranchID:       branch.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
