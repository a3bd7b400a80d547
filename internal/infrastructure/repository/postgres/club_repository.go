package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/athlete-network/internal/domain/club"
	qb "github.com/riskibarqy/athlete-network/internal/platform/querybuilder"
)

// ClubRepository serializes membership changes per club by locking the club row, which keeps
// members_count and the last-admin check consistent with the membership rows.
type ClubRepository struct {
	db *sqlx.DB
	tx txRunner
}

func NewClubRepository(db *sqlx.DB, writeRetries int) *ClubRepository {
	return &ClubRepository{db: db, tx: newTxRunner(db, writeRetries)}
}

func (r *ClubRepository) CreateClub(ctx context.Context, c club.Club, owner club.Membership) error {
	if owner.ClubID != c.ID || owner.Role != club.RoleAdmin || !owner.IsActive {
		return fmt.Errorf("owner membership must be an active admin of club %s", c.ID)
	}

	return r.tx.inTx(ctx, "create club", func(tx *sqlx.Tx) error {
		insertModel := clubInsertModel{
			PublicID:     c.ID,
			Name:         c.Name,
			Description:  c.Description,
			Sports:       pq.StringArray(nonNilStrings(c.Sports)),
			City:         c.City,
			Country:      c.Country,
			CreatedBy:    c.CreatedBy,
			MembersCount: 1,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		}
		query, args, err := qb.InsertModel("clubs", insertModel, "")
		if err != nil {
			return fmt.Errorf("build create club query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("create club: %w", err)
		}
		return insertMembership(ctx, tx, owner)
	})
}

func (r *ClubRepository) GetClub(ctx context.Context, clubID string) (club.Club, bool, error) {
	query, args, err := qb.Select("*").
		From("clubs").
		Where(qb.Eq("public_id", clubID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("build get club query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}
		return club.Club{}, false, fmt.Errorf("get club: %w", err)
	}
	return clubFromRow(row), true, nil
}

func (r *ClubRepository) UpdateClub(ctx context.Context, c club.Club) error {
	query, args, err := qb.UpdateModel("clubs", clubUpdateModel{
		Name:        c.Name,
		Description: c.Description,
		Sports:      pq.StringArray(nonNilStrings(c.Sports)),
		City:        c.City,
		Country:     c.Country,
		UpdatedAt:   c.UpdatedAt,
	}).
		Where(qb.Eq("public_id", c.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update club query: %w", err)
	}

	affected, err := execAffected(ctx, r.db, "update club", query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return club.ErrClubNotFound
	}
	return nil
}

func (r *ClubRepository) ListClubs(ctx context.Context, filter club.Filter) ([]club.Club, error) {
	conditions := make([]qb.Condition, 0, 4)
	if sport := strings.TrimSpace(filter.Sport); sport != "" {
		conditions = append(conditions, qb.Expr("EXISTS (SELECT 1 FROM unnest(sports) AS s WHERE LOWER(s) = LOWER(?))", sport))
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		conditions = append(conditions, qb.EqFold("city", city))
	}
	if country := strings.TrimSpace(filter.Country); country != "" {
		conditions = append(conditions, qb.EqFold("country", country))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, qb.ContainsFold(search, "name", "description"))
	}

	query, args, err := qb.Select("*").
		From("clubs").
		Where(conditions...).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list clubs query: %w", err)
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, clubFromRow(row))
	}
	return out, nil
}

func (r *ClubRepository) GetActiveMembership(ctx context.Context, clubID, userID string) (club.Membership, bool, error) {
	return getActiveMembership(ctx, r.db, clubID, userID, "")
}

func (r *ClubRepository) ListActiveMemberships(ctx context.Context, clubID string) ([]club.Membership, error) {
	return r.listMemberships(ctx, "list active memberships", qb.Eq("club_public_id", clubID))
}

func (r *ClubRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]club.Membership, error) {
	return r.listMemberships(ctx, "list memberships by user", qb.Eq("user_id", userID))
}

func (r *ClubRepository) AddMembership(ctx context.Context, m club.Membership) error {
	return r.tx.inTx(ctx, "add membership", func(tx *sqlx.Tx) error {
		if err := lockClub(ctx, tx, m.ClubID); err != nil {
			return err
		}
		if err := insertMembership(ctx, tx, m); err != nil {
			return err
		}
		return adjustMembersCount(ctx, tx, m.ClubID, 1, time.Time{})
	})
}

func (r *ClubRepository) DeactivateMembership(ctx context.Context, clubID, userID string, leftAt time.Time) error {
	return r.tx.inTx(ctx, "deactivate membership", func(tx *sqlx.Tx) error {
		if err := lockClub(ctx, tx, clubID); err != nil {
			return err
		}
		m, exists, err := getActiveMembership(ctx, tx, clubID, userID, "FOR UPDATE")
		if err != nil {
			return err
		}
		if !exists {
			return club.ErrMembershipNotFound
		}
		if m.Role == club.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, clubID); err != nil {
				return err
			}
		}

		query, args, err := qb.Update("club_memberships").
			Set("is_active", false).
			Set("left_at", leftAt).
			Where(qb.Eq("public_id", m.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build deactivate membership query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deactivate membership: %w", err)
		}
		return adjustMembersCount(ctx, tx, clubID, -1, leftAt)
	})
}

func (r *ClubRepository) UpdateMembershipRole(ctx context.Context, clubID, userID string, role club.MemberRole, permissions []club.Permission) error {
	return r.tx.inTx(ctx, "update membership role", func(tx *sqlx.Tx) error {
		if err := lockClub(ctx, tx, clubID); err != nil {
			return err
		}
		m, exists, err := getActiveMembership(ctx, tx, clubID, userID, "FOR UPDATE")
		if err != nil {
			return err
		}
		if !exists {
			return club.ErrMembershipNotFound
		}
		if m.Role == club.RoleAdmin && role != club.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, clubID); err != nil {
				return err
			}
		}

		query, args, err := qb.Update("club_memberships").
			Set("role", string(role)).
			Set("permissions", permissionsArray(permissions)).
			Where(qb.Eq("public_id", m.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update membership role query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update membership role: %w", err)
		}
		return nil
	})
}

func (r *ClubRepository) CreateJoinRequest(ctx context.Context, req club.JoinRequest) error {
	return r.tx.inTx(ctx, "create join request", func(tx *sqlx.Tx) error {
		if err := lockClub(ctx, tx, req.ClubID); err != nil {
			return err
		}
		_, member, err := getActiveMembership(ctx, tx, req.ClubID, req.UserID, "")
		if err != nil {
			return err
		}
		if member {
			return club.ErrActiveMembershipExists
		}

		insertModel := clubJoinRequestInsertModel{
			PublicID:      req.ID,
			ClubID:        req.ClubID,
			UserID:        req.UserID,
			RequestedRole: string(req.RequestedRole),
			Message:       req.Message,
			Status:        string(req.Status),
			RequestedAt:   req.RequestedAt,
		}
		query, args, err := qb.InsertModel("club_join_requests", insertModel, "")
		if err != nil {
			return fmt.Errorf("build create join request query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err, uqClubJoinRequestsPending) {
				return club.ErrPendingRequestExists
			}
			return fmt.Errorf("create join request: %w", err)
		}
		return nil
	})
}

func (r *ClubRepository) GetJoinRequest(ctx context.Context, requestID string) (club.JoinRequest, bool, error) {
	return getJoinRequest(ctx, r.db, requestID, "")
}

func (r *ClubRepository) ListJoinRequests(ctx context.Context, clubID string, status club.JoinRequestStatus) ([]club.JoinRequest, error) {
	conditions := []qb.Condition{qb.Eq("club_public_id", clubID)}
	if status != "" {
		conditions = append(conditions, qb.Eq("status", string(status)))
	}
	return r.listJoinRequests(ctx, "list join requests", conditions, "requested_at ASC", "id ASC")
}

func (r *ClubRepository) ListJoinRequestsByUser(ctx context.Context, userID string) ([]club.JoinRequest, error) {
	return r.listJoinRequests(ctx, "list join requests by user", []qb.Condition{qb.Eq("user_id", userID)}, "requested_at DESC", "id DESC")
}

func (r *ClubRepository) AcceptJoinRequest(ctx context.Context, req club.JoinRequest, m club.Membership) error {
	return r.tx.inTx(ctx, "accept join request", func(tx *sqlx.Tx) error {
		current, err := lockPendingJoinRequest(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if m.ClubID != current.ClubID || m.UserID != current.UserID {
			return fmt.Errorf("membership does not match join request %s", req.ID)
		}
		if err := lockClub(ctx, tx, current.ClubID); err != nil {
			return err
		}
		if err := insertMembership(ctx, tx, m); err != nil {
			return err
		}
		if err := adjustMembersCount(ctx, tx, current.ClubID, 1, time.Time{}); err != nil {
			return err
		}
		return respondJoinRequest(ctx, tx, req, club.JoinRequestAccepted)
	})
}

func (r *ClubRepository) RejectJoinRequest(ctx context.Context, req club.JoinRequest) error {
	return r.tx.inTx(ctx, "reject join request", func(tx *sqlx.Tx) error {
		if _, err := lockPendingJoinRequest(ctx, tx, req.ID); err != nil {
			return err
		}
		return respondJoinRequest(ctx, tx, req, club.JoinRequestRejected)
	})
}

func (r *ClubRepository) listMemberships(ctx context.Context, op string, scope qb.Condition) ([]club.Membership, error) {
	query, args, err := qb.Select("*").
		From("club_memberships").
		Where(scope, qb.Eq("is_active", true)).
		OrderBy("joined_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []clubMembershipTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]club.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipFromRow(row))
	}
	return out, nil
}

func (r *ClubRepository) listJoinRequests(ctx context.Context, op string, conditions []qb.Condition, orderBy ...string) ([]club.JoinRequest, error) {
	query, args, err := qb.Select("*").
		From("club_join_requests").
		Where(conditions...).
		OrderBy(orderBy...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []clubJoinRequestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]club.JoinRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, joinRequestFromRow(row))
	}
	return out, nil
}

func lockClub(ctx context.Context, tx *sqlx.Tx, clubID string) error {
	query, args, err := qb.Select("id").
		From("clubs").
		Where(qb.Eq("public_id", clubID)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock club query: %w", err)
	}

	var id int64
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return club.ErrClubNotFound
		}
		return fmt.Errorf("lock club: %w", err)
	}
	return nil
}

func getActiveMembership(ctx context.Context, q sqlx.QueryerContext, clubID, userID, lock string) (club.Membership, bool, error) {
	query, args, err := qb.Select("*").
		From("club_memberships").
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Eq("user_id", userID),
			qb.Eq("is_active", true),
		).
		Limit(1).
		Suffix(lock).
		ToSQL()
	if err != nil {
		return club.Membership{}, false, fmt.Errorf("build get active membership query: %w", err)
	}

	var row clubMembershipTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Membership{}, false, nil
		}
		return club.Membership{}, false, fmt.Errorf("get active membership: %w", err)
	}
	return membershipFromRow(row), true, nil
}

func insertMembership(ctx context.Context, tx *sqlx.Tx, m club.Membership) error {
	insertModel := clubMembershipInsertModel{
		PublicID:    m.ID,
		ClubID:      m.ClubID,
		UserID:      m.UserID,
		Role:        string(m.Role),
		Permissions: permissionsArray(m.Permissions),
		IsActive:    true,
		JoinedAt:    m.JoinedAt,
	}
	query, args, err := qb.InsertModel("club_memberships", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert membership query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, uqClubMembershipsActive) {
			return club.ErrActiveMembershipExists
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// adjustMembersCount shifts members_count by delta. A zero at leaves updated_at untouched.
func adjustMembersCount(ctx context.Context, tx *sqlx.Tx, clubID string, delta int, at time.Time) error {
	builder := qb.Update("clubs").
		SetExpr("members_count", "members_count + ?", delta)
	if !at.IsZero() {
		builder = builder.Set("updated_at", at)
	}
	query, args, err := builder.Where(qb.Eq("public_id", clubID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build adjust members count query: %w", err)
	}
	affected, err := execAffected(ctx, tx, "adjust members count", query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return club.ErrClubNotFound
	}
	return nil
}

func ensureAnotherAdmin(ctx context.Context, tx *sqlx.Tx, clubID string) error {
	query, args, err := qb.Select("COUNT(*)").
		From("club_memberships").
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Eq("is_active", true),
			qb.Eq("role", string(club.RoleAdmin)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build count admins query: %w", err)
	}

	var admins int
	if err := tx.GetContext(ctx, &admins, query, args...); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return club.ErrLastAdmin
	}
	return nil
}

func getJoinRequest(ctx context.Context, q sqlx.QueryerContext, requestID, lock string) (club.JoinRequest, bool, error) {
	query, args, err := qb.Select("*").
		From("club_join_requests").
		Where(qb.Eq("public_id", requestID)).
		Limit(1).
		Suffix(lock).
		ToSQL()
	if err != nil {
		return club.JoinRequest{}, false, fmt.Errorf("build get join request query: %w", err)
	}

	var row clubJoinRequestTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.JoinRequest{}, false, nil
		}
		return club.JoinRequest{}, false, fmt.Errorf("get join request: %w", err)
	}
	return joinRequestFromRow(row), true, nil
}

func lockPendingJoinRequest(ctx context.Context, tx *sqlx.Tx, requestID string) (club.JoinRequest, error) {
	current, exists, err := getJoinRequest(ctx, tx, requestID, "FOR UPDATE")
	if err != nil {
		return club.JoinRequest{}, err
	}
	if !exists {
		return club.JoinRequest{}, club.ErrJoinRequestNotFound
	}
	if current.Status != club.JoinRequestPending {
		return club.JoinRequest{}, club.ErrRequestNotPending
	}
	return current, nil
}

func respondJoinRequest(ctx context.Context, tx *sqlx.Tx, req club.JoinRequest, status club.JoinRequestStatus) error {
	query, args, err := qb.Update("club_join_requests").
		Set("status", string(status)).
		Set("responded_at", req.RespondedAt).
		Set("responded_by", optionalString(req.RespondedBy)).
		Where(
			qb.Eq("public_id", req.ID),
			qb.Eq("status", string(club.JoinRequestPending)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build respond join request query: %w", err)
	}
	affected, err := execAffected(ctx, tx, "respond join request", query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return club.ErrRequestNotPending
	}
	return nil
}

func clubFromRow(row clubTableModel) club.Club {
	return club.Club{
		ID:             row.PublicID,
		Name:           row.Name,
		Description:    row.Description,
		Sports:         append([]string(nil), row.Sports...),
		City:           row.City,
		Country:        row.Country,
		CreatedBy:      row.CreatedBy,
		FollowersCount: row.FollowersCount,
		MembersCount:   row.MembersCount,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

func membershipFromRow(row clubMembershipTableModel) club.Membership {
	permissions := make([]club.Permission, 0, len(row.Permissions))
	for _, p := range row.Permissions {
		permissions = append(permissions, club.Permission(p))
	}
	return club.Membership{
		ID:          row.PublicID,
		ClubID:      row.ClubID,
		UserID:      row.UserID,
		Role:        club.MemberRole(row.Role),
		Permissions: permissions,
		IsActive:    row.IsActive,
		JoinedAt:    row.JoinedAt.UTC(),
		LeftAt:      nullTimePtr(row.LeftAt),
	}
}

func joinRequestFromRow(row clubJoinRequestTableModel) club.JoinRequest {
	return club.JoinRequest{
		ID:            row.PublicID,
		ClubID:        row.ClubID,
		UserID:        row.UserID,
		RequestedRole: club.MemberRole(row.RequestedRole),
		Message:       row.Message,
		Status:        club.JoinRequestStatus(row.Status),
		RequestedAt:   row.RequestedAt.UTC(),
		RespondedAt:   nullTimePtr(row.RespondedAt),
		RespondedBy:   row.RespondedBy.String,
	}
}

func permissionsArray(permissions []club.Permission) pq.StringArray {
	out := make(pq.StringArray, 0, len(permissions))
	for _, p := range permissions {
		out = append(out, string(p))
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
