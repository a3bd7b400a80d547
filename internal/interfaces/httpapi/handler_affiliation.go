package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/athlete-network/internal/domain/affiliation"
	"github.com/riskibarqy/athlete-network/internal/usecase"
)

func (h *Handler) RequestAffiliation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RequestAffiliation")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req requestAffiliationRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.affiliationService.Request(ctx, usecase.RequestAffiliationInput{
		AgentID:  principal.UserID,
		PlayerID: req.PlayerID,
		Message:  req.Message,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "request affiliation failed", "agent_id", principal.UserID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, affiliationToDTO(created))
}

func (h *Handler) ListMyAffiliations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyAffiliations")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	asAgent, err := h.affiliationService.ListForAgent(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list agent affiliations failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	asPlayer, err := h.affiliationService.ListForPlayer(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list player affiliations failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, myAffiliationsDTO{
		AsAgent:  mapSlice(asAgent, affiliationToDTO),
		AsPlayer: mapSlice(asPlayer, affiliationToDTO),
	})
}

func (h *Handler) AcceptAffiliation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptAffiliation")
	defer span.End()

	h.respondAffiliation(w, r.WithContext(ctx), "accept", h.affiliationService.Accept)
}

func (h *Handler) RejectAffiliation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectAffiliation")
	defer span.End()

	h.respondAffiliation(w, r.WithContext(ctx), "reject", h.affiliationService.Reject)
}

func (h *Handler) TerminateAffiliation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TerminateAffiliation")
	defer span.End()

	h.respondAffiliation(w, r.WithContext(ctx), "terminate", h.affiliationService.Terminate)
}

type affiliationAction func(ctx context.Context, affiliationID, actorID string) (affiliation.Affiliation, error)

func (h *Handler) respondAffiliation(w http.ResponseWriter, r *http.Request, action string, fn affiliationAction) {
	ctx := r.Context()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	affiliationID := strings.TrimSpace(r.PathValue("affiliationID"))

	item, err := fn(ctx, affiliationID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, action+" affiliation failed", "affiliation_id", affiliationID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, affiliationToDTO(item))
}

func (h *Handler) BlockAgent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BlockAgent")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req blockAgentRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	block, err := h.affiliationService.Block(ctx, usecase.BlockAgentInput{
		PlayerID: principal.UserID,
		AgentID:  req.AgentID,
		Reason:   req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "block agent failed", "player_id", principal.UserID, "agent_id", req.AgentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, blockToDTO(block))
}

func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListBlocks")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.affiliationService.ListBlocks(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list blocks failed", "player_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, blockToDTO))
}

func (h *Handler) UnblockAgent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UnblockAgent")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	agentID := strings.TrimSpace(r.PathValue("agentID"))

	if err := h.affiliationService.Unblock(ctx, principal.UserID, agentID); err != nil {
		h.logger.WarnContext(ctx, "unblock agent failed", "player_id", principal.UserID, "agent_id", agentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"unblocked": true})
}
