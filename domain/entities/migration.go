package entities

import "time"

// MigrationRequest asks for one switch to be migrated from OldVoiceVlan to
// NewVoiceVlan. Empty VLAN fields fall back to the switch configuration.
type MigrationRequest struct {
	Target       string
	OldVoiceVlan string
	NewVoiceVlan string
}

// MigrationCandidateSet lists the interfaces that passed filtering and matching,
// in discovery order.
type MigrationCandidateSet []string

// IsEmpty reports whether no interface qualified
func (s MigrationCandidateSet) IsEmpty() bool {
	return len(s) == 0
}

// Outcome classifies how a device migration ended
type Outcome string

const (
	OutcomeMigrated          Outcome = "migrated"
	OutcomeNoCandidates      Outcome = "no_candidates"
	OutcomeConnectionFailed  Outcome = "connection_failed"
	OutcomePersistenceFailed Outcome = "persistence_failed"
	OutcomeFailed            Outcome = "failed"
)

// MigrationResult is the per-device outcome of one run
type MigrationResult struct {
	Target     string
	Identity   string
	Outcome    Outcome
	Candidates MigrationCandidateSet
	Config     string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// Succeeded is true for both migrated and no-candidate outcomes
func (r MigrationResult) Succeeded() bool {
	return r.Outcome == OutcomeMigrated || r.Outcome == OutcomeNoCandidates
}
