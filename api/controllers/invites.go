package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/api/responses"
	"github.com/pharmhq/pharmacy-backend/api/validators"
	"github.com/pharmhq/pharmacy-backend/internal/invites"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

type inviteCreateRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	Role      string      `json:"role" validate:"required"`
	BranchIDs []uuid.UUID `json:"branch_ids" validate:"required,min=1"`
}

// InviteCreate issues a staff invitation for the active organization.
func InviteCreate(svc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invite service unavailable"))
			return
		}

		orgID, err := contextOrgID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := contextUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body inviteCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		result, err := svc.Create(r.Context(), orgID, userID, invites.CreateInviteInput{
			Email:     body.Email,
			Role:      role,
			BranchIDs: body.BranchIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// InviteList returns the organization's invitations; `?status=pending`
// narrows to the ones still awaiting acceptance.
func InviteList(svc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invite service unavailable"))
			return
		}

		orgID, err := contextOrgID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var rows []invites.InviteDTO
		switch status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))); status {
		case "", "all":
			rows, err = svc.ListByOrg(r.Context(), orgID)
		case "pending":
			rows, err = svc.ListPending(r.Context(), orgID)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported status filter").WithDetails(map[string]any{"status": status}))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"invites": rows})
	}
}

// InviteExpire manually expires a pending invitation.
func InviteExpire(svc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invite service unavailable"))
			return
		}

		orgID, err := contextOrgID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inviteID, err := uuid.Parse(chi.URLParam(r, "inviteId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invite id"))
			return
		}

		if err := svc.Expire(r.Context(), orgID, inviteID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "expired"})
	}
}

// InviteLookup is the unauthenticated preview used by the acceptance page:
// it reveals who invited the recipient and to what, never the token owner's
// account state.
func InviteLookup(svc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invite service unavailable"))
			return
		}

		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required"))
			return
		}

		result, err := svc.Lookup(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type inviteAcceptRequest struct {
	Token string `json:"token" validate:"required"`
}

// InviteAccept joins the authenticated caller to the inviting organization.
func InviteAccept(workflow *invites.AcceptanceWorkflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if workflow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invite workflow unavailable"))
			return
		}

		userID, err := contextUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body inviteAcceptRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := workflow.Accept(r.Context(), userID, body.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
