package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"gotrabandhus/internal/domain"
	"gotrabandhus/internal/service"
)

// maxImportBytes caps the size of an uploaded export document
const maxImportBytes = 10 << 20

// TreeHandler handles family tree API requests
type TreeHandler struct {
	svc    *service.TreeService
	logger *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(svc *service.TreeService, logger *zap.Logger) *TreeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeHandler{svc: svc, logger: logger}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error      string             `json:"error"`
	Details    string             `json:"details,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

// AddRelativeRequest is the body of POST .../members/{memberID}/relatives
type AddRelativeRequest struct {
	Relation string            `json:"relation" validate:"required,oneof=child spouse parent"`
	Data     domain.Attributes `json:"data"`
}

// UpdateMemberRequest is the body of PATCH .../members/{memberID}
type UpdateMemberRequest struct {
	Data domain.Attributes `json:"data" validate:"required"`
}

// AddRelativeResponse carries the id of the new member
type AddRelativeResponse struct {
	ID string `json:"id"`
}

// ProfileResponse is returned after saving a profile
type ProfileResponse struct {
	Profile *domain.Profile    `json:"profile"`
	Member  *domain.PersonNode `json:"member"`
}

// ListTrees returns a summary of every stored tree
func (h *TreeHandler) ListTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := h.svc.ListTrees(r.Context())
	if err != nil {
		h.fail(w, "Failed to list trees", err)
		return
	}
	h.writeJSON(w, trees, http.StatusOK)
}

// GetTree returns the tree as a JSON export document
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Export(r.Context(), chi.URLParam(r, "treeID"), "json")
	if err != nil {
		h.fail(w, "Failed to get tree", err)
		return
	}
	h.writeDocument(w, r, doc)
}

// ClearTree removes the tree and its profile
func (h *TreeHandler) ClearTree(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearTree(r.Context(), chi.URLParam(r, "treeID")); err != nil {
		h.fail(w, "Failed to clear tree", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateTree lists relation invariant violations
func (h *TreeHandler) ValidateTree(w http.ResponseWriter, r *http.Request) {
	violations, err := h.svc.Validate(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		h.fail(w, "Failed to validate tree", err)
		return
	}
	if violations == nil {
		violations = []domain.Violation{}
	}
	h.writeJSON(w, map[string]interface{}{
		"valid":      len(violations) == 0,
		"violations": violations,
	}, http.StatusOK)
}

// GetMember returns one member
func (h *TreeHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	node, err := h.svc.GetMember(r.Context(), chi.URLParam(r, "treeID"), chi.URLParam(r, "memberID"))
	if err != nil {
		h.fail(w, "Failed to get member", err)
		return
	}
	h.writeJSON(w, node, http.StatusOK)
}

// AddRelative attaches a new child, spouse or parent to a member
func (h *TreeHandler) AddRelative(w http.ResponseWriter, r *http.Request) {
	var req AddRelativeRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.svc.AddMember(r.Context(),
		chi.URLParam(r, "treeID"),
		chi.URLParam(r, "memberID"),
		req.Data,
		domain.RelationKind(req.Relation))
	if err != nil {
		h.fail(w, "Failed to add member", err)
		return
	}

	h.writeJSON(w, AddRelativeResponse{ID: id}, http.StatusCreated)
}

// UpdateMember merges attributes into a member
func (h *TreeHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	treeID, memberID := chi.URLParam(r, "treeID"), chi.URLParam(r, "memberID")
	if err := h.svc.UpdateMember(r.Context(), treeID, memberID, req.Data); err != nil {
		h.fail(w, "Failed to update member", err)
		return
	}

	node, err := h.svc.GetMember(r.Context(), treeID, memberID)
	if err != nil {
		h.fail(w, "Failed to get member", err)
		return
	}
	h.writeJSON(w, node, http.StatusOK)
}

// DeleteMember removes a member and every reference to it
func (h *TreeHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteMember(r.Context(), chi.URLParam(r, "treeID"), chi.URLParam(r, "memberID"))
	if err != nil {
		h.fail(w, "Failed to delete member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the tree owner's profile
func (h *TreeHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		h.fail(w, "Failed to get profile", err)
		return
	}
	h.writeJSON(w, p, http.StatusOK)
}

// SaveProfile stores the profile and creates or updates the root member
func (h *TreeHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	node, err := h.svc.SaveProfile(r.Context(), chi.URLParam(r, "treeID"), &p)
	if err != nil {
		h.fail(w, "Failed to save profile", err)
		return
	}
	h.writeJSON(w, ProfileResponse{Profile: &p, Member: node}, http.StatusOK)
}

// Export downloads the tree in the format named by the path
func (h *TreeHandler) Export(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	doc, err := h.svc.Export(r.Context(), treeID, chi.URLParam(r, "format"))
	if err != nil {
		h.fail(w, "Failed to export tree", err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", treeID, doc.Format))
	h.writeDocument(w, r, doc)
}

// Import replaces or merges the tree from an uploaded document
func (h *TreeHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Request body too large", fmt.Sprintf("limit is %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.Import(r.Context(),
		chi.URLParam(r, "treeID"),
		chi.URLParam(r, "format"),
		data,
		r.URL.Query().Get("strategy"))
	if err != nil {
		h.fail(w, "Failed to import tree", err)
		return
	}

	h.writeJSON(w, result, http.StatusOK)
}

// Health reports liveness
func (h *TreeHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper methods

// writeDocument writes an export document with its ETag, answering a
// matching If-None-Match with 304
func (h *TreeHandler) writeDocument(w http.ResponseWriter, r *http.Request, doc *service.Document) {
	etag := `"` + doc.ETag + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		h.logger.Warn("failed to write document", zap.Error(err))
	}
}

// decode reads a JSON body into v and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *TreeHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validateStruct(v); err != nil {
		h.writeError(w, "Invalid request", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps a service error onto a status code and writes it
func (h *TreeHandler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	} else {
		h.logger.Debug(message, zap.Error(err), zap.Int("status", status))
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		resp.Details = formatValidationError(ve).Error()
	}
	var ie *service.InvariantError
	if errors.As(err, &ie) {
		resp.Violations = ie.Violations
	}

	h.writeJSON(w, resp, status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedData),
		errors.Is(err, domain.ErrInvalidRelation),
		errors.Is(err, service.ErrInvalidStrategy),
		errors.Is(err, service.ErrInvalidFormat),
		errors.Is(err, service.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRootProtected):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvariantViolation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *TreeHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{
		Error:   error,
		Details: details,
	}, statusCode)
}

func (h *TreeHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode JSON", zap.Error(err))
	}
}
