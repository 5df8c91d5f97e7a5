package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// GroupService defines the behavior needed by GroupHandler.
type GroupService interface {
	CreateGroup(ctx context.Context, input usecase.CreateGroupInput) (*domain.TransactionGroup, error)
	ListGroups(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error)
	ChangeGroup(ctx context.Context, input usecase.ChangeGroupInput) domain.GroupChangeResult
}

// GroupHandler handles transaction groups.
type GroupHandler struct {
	groupUC GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupUC GroupService) *GroupHandler {
	return &GroupHandler{groupUC: groupUC}
}

// Create creates a group for a client.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	group, err := h.groupUC.CreateGroup(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "clientID")))
	if err != nil {
		writeDomainError(w, err, "failed to create group")
		return
	}

	writeJSON(w, http.StatusCreated, dto.GroupFromDomain(group))
}

// List lists the groups of a client.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupUC.ListGroups(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		writeDomainError(w, err, "failed to list groups")
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupsFromDomain(groups))
}

// ChangeGroup updates the group membership of a transaction. The outcome is
// always reported in the body with status 200; callers branch on result.
func (h *GroupHandler) ChangeGroup(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangeGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result := h.groupUC.ChangeGroup(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))

	writeJSON(w, http.StatusOK, dto.GroupChangeFromDomain(result))
}
