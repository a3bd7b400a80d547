package postgres

import (
	"database/sql"
	"time"
)

const (
	uqAgentAffiliationsOpen = "uq_agent_affiliations_open"
	agentBlocksPrimaryKey   = "agent_blocks_pkey"
)

type affiliationTableModel struct {
	ID          int64        `db:"id"`
	PublicID    string       `db:"public_id"`
	AgentID     string       `db:"agent_id"`
	PlayerID    string       `db:"player_id"`
	Message     string       `db:"message"`
	Status      string       `db:"status"`
	RequestedAt time.Time    `db:"requested_at"`
	RespondedAt sql.NullTime `db:"responded_at"`
	EndedAt     sql.NullTime `db:"ended_at"`
}

type affiliationInsertModel struct {
	PublicID    string    `db:"public_id"`
	AgentID     string    `db:"agent_id"`
	PlayerID    string    `db:"player_id"`
	Message     string    `db:"message"`
	Status      string    `db:"status"`
	RequestedAt time.Time `db:"requested_at"`
}

type agentBlockTableModel struct {
	PlayerID  string    `db:"player_id"`
	AgentID   string    `db:"agent_id"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}
