package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
	"github.com/riskibarqy/athlete-network/internal/usecase"
)

func (h *Handler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateOpportunity")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))

	var req createOpportunityRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.opportunityService.Create(ctx, usecase.CreateOpportunityInput{
		ClubID:       clubID,
		CreatedBy:    principal.UserID,
		Title:        req.Title,
		Type:         req.Type,
		Sport:        req.Sport,
		RoleRequired: req.RoleRequired,
		Level:        req.Level,
		City:         req.City,
		Country:      req.Country,
		Description:  req.Description,
		ExpiryDate:   req.ExpiryDate,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create opportunity failed", "club_id", clubID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, opportunityToDTO(created))
}

func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOpportunities")
	defer span.End()

	query := r.URL.Query()
	filter := opportunity.Filter{
		ClubID:       query.Get("club_id"),
		Sport:        query.Get("sport"),
		Level:        query.Get("level"),
		City:         query.Get("city"),
		Country:      query.Get("country"),
		RoleRequired: query.Get("role_required"),
		Search:       query.Get("q"),
	}
	if rawType := strings.TrimSpace(query.Get("type")); rawType != "" {
		parsed, ok := opportunity.ParseType(rawType)
		if !ok {
			writeError(ctx, w, fmt.Errorf("%w: unsupported opportunity type %q", usecase.ErrInvalidInput, rawType))
			return
		}
		filter.Type = parsed
	}

	items, err := h.opportunityService.ListActive(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list opportunities failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, opportunityToDTO))
}

func (h *Handler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOpportunity")
	defer span.End()

	opportunityID := strings.TrimSpace(r.PathValue("opportunityID"))
	item, err := h.opportunityService.Get(ctx, opportunityID)
	if err != nil {
		h.logger.WarnContext(ctx, "get opportunity failed", "opportunity_id", opportunityID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, opportunityToDTO(item))
}

func (h *Handler) DeactivateOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeactivateOpportunity")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	opportunityID := strings.TrimSpace(r.PathValue("opportunityID"))

	item, err := h.opportunityService.Deactivate(ctx, opportunityID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "deactivate opportunity failed", "opportunity_id", opportunityID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, opportunityToDTO(item))
}

func (h *Handler) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteOpportunity")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	opportunityID := strings.TrimSpace(r.PathValue("opportunityID"))

	if err := h.opportunityService.Delete(ctx, opportunityID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "delete opportunity failed", "opportunity_id", opportunityID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"deleted": true})
}
