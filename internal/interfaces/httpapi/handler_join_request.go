package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/athlete-network/internal/usecase"
)

func (h *Handler) CreateJoinRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateJoinRequest")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))

	var req createJoinRequestRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.joinRequestService.Create(ctx, usecase.CreateJoinRequestInput{
		ClubID:        clubID,
		UserID:        principal.UserID,
		RequestedRole: req.RequestedRole,
		Message:       req.Message,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create join request failed", "club_id", clubID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, joinRequestToDTO(created))
}

func (h *Handler) ListPendingJoinRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPendingJoinRequests")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))

	items, err := h.joinRequestService.ListPending(ctx, clubID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list pending join requests failed", "club_id", clubID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, joinRequestToDTO))
}

func (h *Handler) ListMyJoinRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyJoinRequests")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.joinRequestService.ListMine(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my join requests failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, joinRequestToDTO))
}

func (h *Handler) AcceptJoinRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptJoinRequest")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	requestID := strings.TrimSpace(r.PathValue("requestID"))

	m, err := h.joinRequestService.Accept(ctx, requestID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept join request failed", "request_id", requestID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, membershipToDTO(m))
}

func (h *Handler) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectJoinRequest")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	requestID := strings.TrimSpace(r.PathValue("requestID"))

	rejected, err := h.joinRequestService.Reject(ctx, requestID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "reject join request failed", "request_id", requestID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, joinRequestToDTO(rejected))
}
