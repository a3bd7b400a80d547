package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/athlete-network/internal/usecase"
)

// Apply submits an application for the caller. When player_id is set the caller applies as
// that player's agent.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Apply")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	opportunityID := strings.TrimSpace(r.PathValue("opportunityID"))

	var req applyRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.ApplyInput{
		OpportunityID: opportunityID,
		ApplicantID:   principal.UserID,
		Message:       req.Message,
	}
	if playerID := strings.TrimSpace(req.PlayerID); playerID != "" {
		input.ApplicantID = playerID
		input.AgentID = principal.UserID
	}

	app, err := h.applicationService.Apply(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "apply failed",
			"opportunity_id", opportunityID,
			"applicant_id", input.ApplicantID,
			"agent_id", input.AgentID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, applicationToDTO(app))
}

func (h *Handler) ListOpportunityApplications(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOpportunityApplications")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	opportunityID := strings.TrimSpace(r.PathValue("opportunityID"))

	items, err := h.applicationService.ListByOpportunity(ctx, opportunityID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list opportunity applications failed", "opportunity_id", opportunityID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, applicationToDTO))
}

func (h *Handler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyApplications")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.applicationService.ListByApplicant(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my applications failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, applicationToDTO))
}

func (h *Handler) ListRepresentedApplications(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRepresentedApplications")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.applicationService.ListByAgent(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list represented applications failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, applicationToDTO))
}

func (h *Handler) WithdrawApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawApplication")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	applicationID := strings.TrimSpace(r.PathValue("applicationID"))

	app, err := h.applicationService.Withdraw(ctx, applicationID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "withdraw application failed", "application_id", applicationID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, applicationToDTO(app))
}

func (h *Handler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DecideApplication")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	applicationID := strings.TrimSpace(r.PathValue("applicationID"))

	var req decideApplicationRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	app, err := h.applicationService.Decide(ctx, usecase.DecideApplicationInput{
		ApplicationID: applicationID,
		ReviewedBy:    principal.UserID,
		Decision:      req.Decision,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "decide application failed", "application_id", applicationID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, applicationToDTO(app))
}
