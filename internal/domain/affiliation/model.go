package affiliation

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusTerminated Status = "terminated"
	// StatusRetracted marks a pending request closed because the player blocked the agent.
	StatusRetracted Status = "retracted"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected, StatusRetracted},
	StatusAccepted: {StatusTerminated},
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether the status prevents another request for the same pair.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusAccepted
}

type Affiliation struct {
	ID          string
	AgentID     string
	PlayerID    string
	Message     string
	Status      Status
	RequestedAt time.Time
	RespondedAt *time.Time
	EndedAt     *time.Time
}

type Block struct {
	PlayerID  string
	AgentID   string
	Reason    string
	CreatedAt time.Time
}
