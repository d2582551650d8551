package httphandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// ListGroups returns an endpoint's account groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, "failed to list groups", err)
		return
	}

	resp := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupResponse(g))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateGroup adds an account group to an endpoint.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.groups.Create(r.Context(), r.PathValue("id"), req.Name, req.Description, req.Accounts)
	if err != nil {
		h.writeDomainError(w, "failed to create group", err)
		return
	}

	writeJSON(w, http.StatusCreated, toGroupResponse(g))
}

// UpdateGroup renames a group and replaces its description.
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := parseGroupID(w, r)
	if !ok {
		return
	}

	var req GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.groups.Rename(r.Context(), r.PathValue("id"), groupID, req.Name, req.Description); err != nil {
		h.writeDomainError(w, "failed to update group", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetGroupMembers replaces a group's account list.
func (h *Handler) SetGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := parseGroupID(w, r)
	if !ok {
		return
	}

	var req MembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.groups.SetMembers(r.Context(), r.PathValue("id"), groupID, req.Accounts); err != nil {
		h.writeDomainError(w, "failed to set group members", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteGroup removes a group.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := parseGroupID(w, r)
	if !ok {
		return
	}

	if err := h.groups.Delete(r.Context(), r.PathValue("id"), groupID); err != nil {
		h.writeDomainError(w, "failed to delete group", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCategories returns an endpoint's ordered category list.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.groups.Categories(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, "failed to get categories", err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}

	writeJSON(w, http.StatusOK, categories)
}

// ReplaceCategories stores the request body as the endpoint's complete
// category list.
func (h *Handler) ReplaceCategories(w http.ResponseWriter, r *http.Request) {
	var categories []model.Category
	if err := json.NewDecoder(r.Body).Decode(&categories); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.groups.ReplaceCategories(r.Context(), r.PathValue("id"), categories); err != nil {
		h.writeDomainError(w, "failed to replace categories", err)
		return
	}

	h.GetCategories(w, r)
}

func parseGroupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("groupID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return 0, false
	}
	return id, true
}
