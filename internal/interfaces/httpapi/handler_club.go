package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/usecase"
)

func (h *Handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateClub")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createClubRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.clubService.CreateClub(ctx, usecase.CreateClubInput{
		UserID:      principal.UserID,
		Name:        req.Name,
		Description: req.Description,
		Sports:      req.Sports,
		City:        req.City,
		Country:     req.Country,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create club failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, clubToDTO(created))
}

func (h *Handler) ListClubs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubs")
	defer span.End()

	query := r.URL.Query()
	clubs, err := h.clubService.ListClubs(ctx, club.Filter{
		Sport:   query.Get("sport"),
		City:    query.Get("city"),
		Country: query.Get("country"),
		Search:  query.Get("q"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list clubs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(clubs, clubToDTO))
}

func (h *Handler) GetClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetClub")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	item, err := h.clubService.GetClub(ctx, clubID)
	if err != nil {
		h.logger.WarnContext(ctx, "get club failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clubToDTO(item))
}

func (h *Handler) UpdateClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateClub")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))

	var req updateClubRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.clubService.UpdateClub(ctx, usecase.UpdateClubInput{
		ActorID:     principal.UserID,
		ClubID:      clubID,
		Name:        req.Name,
		Description: req.Description,
		Sports:      req.Sports,
		City:        req.City,
		Country:     req.Country,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update club failed", "club_id", clubID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clubToDTO(updated))
}

func (h *Handler) ListMyMemberships(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyMemberships")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.clubService.ListMyMemberships(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my memberships failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, membershipToDTO))
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMembers")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	items, err := h.clubService.ListMembers(ctx, clubID)
	if err != nil {
		h.logger.WarnContext(ctx, "list members failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, membershipToDTO))
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddMember")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))

	var req addMemberRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	m, err := h.clubService.AddMember(ctx, usecase.AddMemberInput{
		ClubID:      clubID,
		ActorID:     principal.UserID,
		UserID:      req.UserID,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add member failed", "club_id", clubID, "user_id", req.UserID, "actor_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, membershipToDTO(m))
}

func (h *Handler) GetMembership(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMembership")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	m, err := h.clubService.GetMembership(ctx, clubID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get membership failed", "club_id", clubID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, membershipToDTO(m))
}

func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMemberRole")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	var req updateMemberRoleRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	m, err := h.clubService.UpdateMemberRole(ctx, usecase.UpdateMemberRoleInput{
		ClubID:  clubID,
		ActorID: principal.UserID,
		UserID:  userID,
		Role:    req.Role,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update member role failed", "club_id", clubID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, membershipToDTO(m))
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveMember")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	removed, err := h.clubService.RemoveMember(ctx, clubID, principal.UserID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "remove member failed", "club_id", clubID, "user_id", userID, "actor_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h *Handler) LeaveClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveClub")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	clubID := strings.TrimSpace(r.PathValue("clubID"))

	if err := h.clubService.LeaveClub(ctx, clubID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "leave club failed", "club_id", clubID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"left": true})
}
