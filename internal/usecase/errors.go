package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("resource not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDependencyUnavailable  = errors.New("dependency unavailable")
)

var (
	ErrAlreadyMember        = fmt.Errorf("%w: user is already an active member of this club", ErrConflict)
	ErrDuplicateJoinRequest = fmt.Errorf("%w: a pending join request already exists", ErrConflict)
	ErrLastAdmin            = fmt.Errorf("%w: club must keep at least one active admin", ErrConflict)
	ErrAlreadyApplied       = fmt.Errorf("%w: an application for this opportunity already exists", ErrConflict)
	ErrDuplicateAffiliation = fmt.Errorf("%w: an open affiliation already exists", ErrConflict)
	ErrAlreadyBlocked       = fmt.Errorf("%w: agent is already blocked", ErrConflict)

	ErrNotAuthorizedToRepresent = fmt.Errorf("%w: agent is not authorized to represent this player", ErrForbidden)
	ErrRoleMismatch             = fmt.Errorf("%w: applicant role does not match the required role", ErrForbidden)
	ErrAgentBlocked             = fmt.Errorf("%w: player has blocked this agent", ErrForbidden)

	ErrInvalidExpiry     = fmt.Errorf("%w: expiry date must be in the future", ErrInvalidInput)
	ErrOpportunityClosed = fmt.Errorf("%w: opportunity is not accepting applications", ErrInvalidStateTransition)
)
