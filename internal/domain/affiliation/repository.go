package affiliation

import (
	"context"
	"errors"
)

var (
	ErrAffiliationNotFound = errors.New("affiliation not found")
	ErrOpenAffiliation     = errors.New("open affiliation already exists")
	ErrBlocked             = errors.New("agent is blocked by player")
	ErrAlreadyBlocked      = errors.New("agent already blocked")
	ErrBlockNotFound       = errors.New("block not found")
	ErrStaleState          = errors.New("affiliation status changed concurrently")
)

type Repository interface {
	// Create stores a pending affiliation, failing with ErrBlocked or ErrOpenAffiliation.
	Create(ctx context.Context, a Affiliation) error
	GetByID(ctx context.Context, affiliationID string) (Affiliation, bool, error)
	GetOpen(ctx context.Context, agentID, playerID string) (Affiliation, bool, error)
	ListByAgent(ctx context.Context, agentID string) ([]Affiliation, error)
	ListByPlayer(ctx context.Context, playerID string) ([]Affiliation, error)
	// UpdateStatus persists a only when the stored status still equals expected.
	UpdateStatus(ctx context.Context, a Affiliation, expected Status) error

	// CreateBlock records the block and atomically closes the open affiliation for the pair:
	// pending becomes retracted, accepted becomes terminated.
	CreateBlock(ctx context.Context, b Block) error
	DeleteBlock(ctx context.Context, playerID, agentID string) error
	GetBlock(ctx context.Context, playerID, agentID string) (Block, bool, error)
	ListBlocksByPlayer(ctx context.Context, playerID string) ([]Block, error)
}
