package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/apperror"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/audit"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/client"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/org"
)

// OrgHandler handles HTTP requests for organizations and memberships
type OrgHandler struct {
	service  *org.Service
	recorder *audit.Recorder
}

// NewOrgHandler creates a new organization handler
func NewOrgHandler(service *org.Service, recorder *audit.Recorder) *OrgHandler {
	return &OrgHandler{
		service:  service,
		recorder: recorder,
	}
}

// RegisterRoutes registers organization routes. Callers mount them behind the
// authentication middleware; member and admin routes additionally sit behind
// the tenant and permission middleware.
func (h *OrgHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.CreateOrganization)
	r.Get("/mine", h.ListMine)
}

// RegisterMemberRoutes registers routes that require a resolved organization
func (h *OrgHandler) RegisterMemberRoutes(r chi.Router) {
	r.Get("/members", h.ListMembers)
	r.Post("/leave", h.Leave)
}

// RegisterAdminRoutes registers routes behind the manage_members permission
func (h *OrgHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/members", h.AddMember)
	r.Put("/members/{identityID}/role", h.UpdateMemberRole)
	r.Delete("/members/{identityID}", h.RemoveMember)
	r.Post("/transfer", h.TransferOwnership)
}

// RegisterAuditRoutes registers the audit reporting route
func (h *OrgHandler) RegisterAuditRoutes(r chi.Router) {
	r.Get("/audit", h.ListAudit)
}

// CreateOrganizationRequest is the request body for creating an organization
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan,omitempty"`
}

// AddMemberRequest is the request body for adding a member
type AddMemberRequest struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role,omitempty"`
}

// UpdateRoleRequest is the request body for a role change
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// TransferRequest is the request body for an ownership transfer
type TransferRequest struct {
	ToIdentityID string `json:"to_identity_id"`
}

// MembershipResponse is the public view of one membership
type MembershipResponse struct {
	IdentityID     string    `json:"identity_id"`
	OrganizationID string    `json:"organization_id"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *OrgHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	user := client.GetAuthUser(r.Context())
	if user == nil {
		apperror.Render(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	var data CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		apperror.Render(w, r, apperror.Validation("invalid request body"))
		return
	}
	if data.Name == "" {
		apperror.Render(w, r, apperror.Validation("organization name is required"))
		return
	}

	organization, err := h.service.CreateOrganization(r.Context(), user.ID, data.Name, org.PlanTier(data.Plan))
	if err != nil {
		renderOrgError(w, r, err)
		return
	}

	h.recorder.Record(audit.Entry{
		ActorID:        user.ID,
		OrganizationID: organization.ID,
		Action:         "create_organization",
		EntityType:     "organization",
		EntityID:       organization.ID.String(),
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	})
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, organization)
}

func (h *OrgHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := client.GetAuthUser(r.Context())
	if user == nil {
		apperror.Render(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	memberships, err := h.service.ListByIdentity(r.Context(), user.ID)
	if err != nil {
		apperror.Render(w, r, err)
		return
	}
	render.JSON(w, r, membershipResponses(memberships))
}

func (h *OrgHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := client.GetOrganizationID(r.Context())
	if !ok {
		apperror.Render(w, r, apperror.Validation("organization could not be determined"))
		return
	}

	memberships, err := h.service.ListMembers(r.Context(), orgID)
	if err != nil {
		apperror.Render(w, r, err)
		return
	}
	render.JSON(w, r, membershipResponses(memberships))
}

func (h *OrgHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, orgID, ok := requireOrgContext(w, r)
	if !ok {
		return
	}

	var data AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		apperror.Render(w, r, apperror.Validation("invalid request body"))
		return
	}
	identityID, err := uuid.Parse(data.IdentityID)
	if err != nil {
		apperror.Render(w, r, apperror.Validation("invalid identity id"))
		return
	}

	membership, err := h.service.AcceptInvite(r.Context(), identityID, orgID, data.Role)
	if err != nil {
		renderOrgError(w, r, err)
		return
	}

	h.recorder.Record(audit.Entry{
		ActorID:        user.ID,
		OrganizationID: orgID,
		Action:         "add_member",
		EntityType:     "membership",
		EntityID:       membership.ID.String(),
		After:          mustJSON(map[string]string{"identity_id": data.IdentityID, "role": membership.Role}),
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	})
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, membershipResponse(*membership))
}

func (h *OrgHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	user, orgID, ok := requireOrgContext(w, r)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "identityID"))
	if err != nil {
		apperror.Render(w, r, apperror.Validation("invalid identity id"))
		return
	}

	var data UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		apperror.Render(w, r, apperror.Validation("invalid request body"))
		return
	}

	before, err := h.service.ActiveRole(r.Context(), targetID, orgID)
	if err != nil {
		before = ""
	}

	membership, err := h.service.UpdateMemberRole(r.Context(), orgID, targetID, data.Role)
	if err != nil {
		renderOrgError(w, r, err)
		return
	}

	h.recorder.Record(audit.Entry{
		ActorID:        user.ID,
		OrganizationID: orgID,
		Action:         "update_member_role",
		EntityType:     "membership",
		EntityID:       membership.ID.String(),
		Before:         mustJSON(map[string]string{"role": before}),
		After:          mustJSON(map[string]string{"role": membership.Role}),
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	})
	render.JSON(w, r, membershipResponse(*membership))
}

func (h *OrgHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, orgID, ok := requireOrgContext(w, r)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "identityID"))
	if err != nil {
		apperror.Render(w, r, apperror.Validation("invalid identity id"))
		return
	}

	if err := h.service.RemoveMember(r.Context(), orgID, targetID); err != nil {
		renderOrgError(w, r, err)
		return
	}

	h.recorder.Record(audit.Entry{
		ActorID:        user.ID,
		OrganizationID: orgID,
		Action:         "remove_member",
		EntityType:     "membership",
		EntityID:       targetID.String(),
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	})
	render.NoContent(w, r)
}

func (h *OrgHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, orgID, ok := requireOrgContext(w, r)
	if !ok {
		return
	}

	if err := h.service.Leave(r.Context(), orgID, user.ID); err != nil {
		renderOrgError(w, r, err)
		return
	}

	h.recorder.Record(audit.Entry{
		ActorID:        user.ID,
		OrganizationID: orgID,
		Action:         "leave_organization",
		EntityType:     "membership",
		EntityID:       user.ID.String(),
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	})
	render.NoContent(w, r)
}

func (h *OrgHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	user, orgID, ok := requireOrgContext(w, r)
	if !ok {
		return
	}

	var data TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		apperror.Render(w, r, apperror.Validation("invalid request body"))
		return
	}
	toID, err := uuid.Parse(data.ToIdentityID)
	if err != nil {
		apperror.Render(w, r, apperror.Validation("invalid identity id"))
		return
	}

	if err := h.service.TransferOwnership(r.Context(), orgID, user.ID, toID); err != nil {
		renderOrgError(w, r, err)
		return
	}

	h.recorder.Record(audit.Entry{
		ActorID:        user.ID,
		OrganizationID: orgID,
		Action:         "transfer_ownership",
		EntityType:     "organization",
		EntityID:       orgID.String(),
		After:          mustJSON(map[string]string{"owner_identity_id": data.ToIdentityID}),
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
	})
	render.JSON(w, r, map[string]string{"message": "ownership transferred"})
}

func (h *OrgHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	orgID, ok := client.GetOrganizationID(r.Context())
	if !ok {
		apperror.Render(w, r, apperror.Validation("organization could not be determined"))
		return
	}

	records, err := h.recorder.List(r.Context(), orgID, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		apperror.Render(w, r, err)
		return
	}
	render.JSON(w, r, records)
}

func requireOrgContext(w http.ResponseWriter, r *http.Request) (*client.AuthUser, uuid.UUID, bool) {
	user := client.GetAuthUser(r.Context())
	if user == nil {
		apperror.Render(w, r, apperror.Unauthorized("authentication required"))
		return nil, uuid.Nil, false
	}
	orgID, ok := client.GetOrganizationID(r.Context())
	if !ok {
		apperror.Render(w, r, apperror.Validation("organization could not be determined"))
		return nil, uuid.Nil, false
	}
	return user, orgID, true
}

// renderOrgError maps organization domain errors onto the HTTP taxonomy
func renderOrgError(w http.ResponseWriter, r *http.Request, err error) {
	var alreadyMember org.ErrAlreadyMember
	var slugTaken org.ErrSlugTaken
	var unknownRole org.ErrUnknownRole

	switch {
	case errors.Is(err, org.ErrOrganizationNotFound), errors.Is(err, org.ErrMembershipNotFound):
		apperror.Render(w, r, apperror.NotFound(err.Error()))
	case errors.Is(err, org.ErrNotMember):
		apperror.Render(w, r, apperror.Forbidden(err.Error()))
	case errors.Is(err, org.ErrOwnerImmutable), errors.Is(err, org.ErrOwnerCannotLeave),
		errors.Is(err, org.ErrTransferSourceNotOwner):
		apperror.Render(w, r, apperror.Forbidden(err.Error()))
	case errors.Is(err, org.ErrTransferTargetInactive):
		apperror.Render(w, r, apperror.Validation(err.Error()))
	case errors.As(err, &alreadyMember), errors.As(err, &slugTaken):
		apperror.Render(w, r, apperror.Conflict(err.Error()))
	case errors.As(err, &unknownRole):
		apperror.Render(w, r, apperror.Validation(err.Error()))
	default:
		apperror.Render(w, r, err)
	}
}

func membershipResponses(memberships []org.Membership) []MembershipResponse {
	response := make([]MembershipResponse, 0, len(memberships))
	for _, m := range memberships {
		response = append(response, membershipResponse(m))
	}
	return response
}

func membershipResponse(m org.Membership) MembershipResponse {
	return MembershipResponse{
		IdentityID:     m.IdentityID.String(),
		OrganizationID: m.OrganizationID.String(),
		Role:           m.Role,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
