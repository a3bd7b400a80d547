package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/athlete-network/internal/domain/affiliation"
	qb "github.com/riskibarqy/athlete-network/internal/platform/querybuilder"
)

var openAffiliationStatuses = []any{string(affiliation.StatusPending), string(affiliation.StatusAccepted)}

// AffiliationRepository takes a transaction-scoped advisory lock per agent and player pair so
// request creation and blocking cannot interleave.
type AffiliationRepository struct {
	db *sqlx.DB
	tx txRunner
}

func NewAffiliationRepository(db *sqlx.DB, writeRetries int) *AffiliationRepository {
	return &AffiliationRepository{db: db, tx: newTxRunner(db, writeRetries)}
}

func (r *AffiliationRepository) Create(ctx context.Context, a affiliation.Affiliation) error {
	return r.tx.inTx(ctx, "create affiliation", func(tx *sqlx.Tx) error {
		if err := lockPair(ctx, tx, a.AgentID, a.PlayerID); err != nil {
			return err
		}
		_, blocked, err := getBlock(ctx, tx, a.PlayerID, a.AgentID)
		if err != nil {
			return err
		}
		if blocked {
			return affiliation.ErrBlocked
		}

		insertModel := affiliationInsertModel{
			PublicID:    a.ID,
			AgentID:     a.AgentID,
			PlayerID:    a.PlayerID,
			Message:     a.Message,
			Status:      string(a.Status),
			RequestedAt: a.RequestedAt,
		}
		query, args, err := qb.InsertModel("agent_affiliations", insertModel, "")
		if err != nil {
			return fmt.Errorf("build create affiliation query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err, uqAgentAffiliationsOpen) {
				return affiliation.ErrOpenAffiliation
			}
			return fmt.Errorf("create affiliation: %w", err)
		}
		return nil
	})
}

func (r *AffiliationRepository) GetByID(ctx context.Context, affiliationID string) (affiliation.Affiliation, bool, error) {
	return r.getOne(ctx, "get affiliation", qb.Eq("public_id", affiliationID))
}

func (r *AffiliationRepository) GetOpen(ctx context.Context, agentID, playerID string) (affiliation.Affiliation, bool, error) {
	return r.getOne(ctx, "get open affiliation",
		qb.Eq("agent_id", agentID),
		qb.Eq("player_id", playerID),
		qb.In("status", openAffiliationStatuses),
	)
}

func (r *AffiliationRepository) ListByAgent(ctx context.Context, agentID string) ([]affiliation.Affiliation, error) {
	return r.list(ctx, "list affiliations by agent", qb.Eq("agent_id", agentID))
}

func (r *AffiliationRepository) ListByPlayer(ctx context.Context, playerID string) ([]affiliation.Affiliation, error) {
	return r.list(ctx, "list affiliations by player", qb.Eq("player_id", playerID))
}

func (r *AffiliationRepository) UpdateStatus(ctx context.Context, a affiliation.Affiliation, expected affiliation.Status) error {
	query, args, err := qb.Update("agent_affiliations").
		Set("status", string(a.Status)).
		Set("responded_at", a.RespondedAt).
		Set("ended_at", a.EndedAt).
		Where(
			qb.Eq("public_id", a.ID),
			qb.Eq("status", string(expected)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update affiliation status query: %w", err)
	}
	affected, err := execAffected(ctx, r.db, "update affiliation status", query, args...)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	_, exists, err := r.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if !exists {
		return affiliation.ErrAffiliationNotFound
	}
	return affiliation.ErrStaleState
}

func (r *AffiliationRepository) CreateBlock(ctx context.Context, b affiliation.Block) error {
	return r.tx.inTx(ctx, "create block", func(tx *sqlx.Tx) error {
		if err := lockPair(ctx, tx, b.AgentID, b.PlayerID); err != nil {
			return err
		}

		query, args, err := qb.InsertModel("agent_blocks", agentBlockTableModel{
			PlayerID:  b.PlayerID,
			AgentID:   b.AgentID,
			Reason:    b.Reason,
			CreatedAt: b.CreatedAt,
		}, "")
		if err != nil {
			return fmt.Errorf("build create block query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err, agentBlocksPrimaryKey) {
				return affiliation.ErrAlreadyBlocked
			}
			return fmt.Errorf("create block: %w", err)
		}

		closing := []struct {
			from affiliation.Status
			to   affiliation.Status
		}{
			{from: affiliation.StatusPending, to: affiliation.StatusRetracted},
			{from: affiliation.StatusAccepted, to: affiliation.StatusTerminated},
		}
		for _, c := range closing {
			closeQuery, closeArgs, err := qb.Update("agent_affiliations").
				Set("status", string(c.to)).
				Set("ended_at", b.CreatedAt).
				Where(
					qb.Eq("agent_id", b.AgentID),
					qb.Eq("player_id", b.PlayerID),
					qb.Eq("status", string(c.from)),
				).
				ToSQL()
			if err != nil {
				return fmt.Errorf("build close affiliation query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, closeQuery, closeArgs...); err != nil {
				return fmt.Errorf("close %s affiliation: %w", c.from, err)
			}
		}
		return nil
	})
}

func (r *AffiliationRepository) DeleteBlock(ctx context.Context, playerID, agentID string) error {
	query, args, err := qb.DeleteFrom("agent_blocks").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("agent_id", agentID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete block query: %w", err)
	}
	affected, err := execAffected(ctx, r.db, "delete block", query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return affiliation.ErrBlockNotFound
	}
	return nil
}

func (r *AffiliationRepository) GetBlock(ctx context.Context, playerID, agentID string) (affiliation.Block, bool, error) {
	return getBlock(ctx, r.db, playerID, agentID)
}

func (r *AffiliationRepository) ListBlocksByPlayer(ctx context.Context, playerID string) ([]affiliation.Block, error) {
	query, args, err := qb.Select("*").
		From("agent_blocks").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("created_at ASC", "agent_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list blocks query: %w", err)
	}

	var rows []agentBlockTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	out := make([]affiliation.Block, 0, len(rows))
	for _, row := range rows {
		out = append(out, blockFromRow(row))
	}
	return out, nil
}

func (r *AffiliationRepository) getOne(ctx context.Context, op string, conditions ...qb.Condition) (affiliation.Affiliation, bool, error) {
	query, args, err := qb.Select("*").
		From("agent_affiliations").
		Where(conditions...).
		Limit(1).
		ToSQL()
	if err != nil {
		return affiliation.Affiliation{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row affiliationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return affiliation.Affiliation{}, false, nil
		}
		return affiliation.Affiliation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return affiliationFromRow(row), true, nil
}

func (r *AffiliationRepository) list(ctx context.Context, op string, scope qb.Condition) ([]affiliation.Affiliation, error) {
	query, args, err := qb.Select("*").
		From("agent_affiliations").
		Where(scope).
		OrderBy("requested_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []affiliationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]affiliation.Affiliation, 0, len(rows))
	for _, row := range rows {
		out = append(out, affiliationFromRow(row))
	}
	return out, nil
}

func lockPair(ctx context.Context, tx *sqlx.Tx, agentID, playerID string) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "pair::"+agentID+"::"+playerID); err != nil {
		return fmt.Errorf("lock affiliation pair: %w", err)
	}
	return nil
}

func getBlock(ctx context.Context, q sqlx.QueryerContext, playerID, agentID string) (affiliation.Block, bool, error) {
	query, args, err := qb.Select("*").
		From("agent_blocks").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("agent_id", agentID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return affiliation.Block{}, false, fmt.Errorf("build get block query: %w", err)
	}

	var row agentBlockTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return affiliation.Block{}, false, nil
		}
		return affiliation.Block{}, false, fmt.Errorf("get block: %w", err)
	}
	return blockFromRow(row), true, nil
}

func affiliationFromRow(row affiliationTableModel) affiliation.Affiliation {
	return affiliation.Affiliation{
		ID:          row.PublicID,
		AgentID:     row.AgentID,
		PlayerID:    row.PlayerID,
		Message:     row.Message,
		Status:      affiliation.Status(row.Status),
		RequestedAt: row.RequestedAt.UTC(),
		RespondedAt: nullTimePtr(row.RespondedAt),
		EndedAt:     nullTimePtr(row.EndedAt),
	}
}

func blockFromRow(row agentBlockTableModel) affiliation.Block {
	return affiliation.Block{
		PlayerID:  row.PlayerID,
		AgentID:   row.AgentID,
		Reason:    row.Reason,
		CreatedAt: row.CreatedAt.UTC(),
	}
}
