// Package coach provides the AI coaching conversation bounded context:
// stage detection, conversation guard, memory extraction and the turn
// pipeline that produces the assistant reply.
package coach

import "strings"

// Stage is a phase of the coaching funnel. Stored lowercase.
type Stage string

const (
	// StageSDR handles first contact and qualification.
	StageSDR Stage = "sdr"
	// StageSpecialist digs into the client's difficulties and goals.
	StageSpecialist Stage = "specialist"
	// StageSeller presents the trial and closes the subscription.
	StageSeller Stage = "seller"
	// StagePartner is the ongoing coaching relationship.
	StagePartner Stage = "partner"
)

var stageOrder = []Stage{StageSDR, StageSpecialist, StageSeller, StagePartner}

// ParseStage normalizes a stored or external stage string. Unknown values
// fall back to the SDR stage so a corrupt row never breaks a conversation.
func ParseStage(raw string) Stage {
	switch Stage(strings.ToLower(strings.TrimSpace(raw))) {
	case StageSpecialist:
		return StageSpecialist
	case StageSeller:
		return StageSeller
	case StagePartner:
		return StagePartner
	default:
		return StageSDR
	}
}

func (s Stage) index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage. Partner is terminal; an unrecognized
// stage escalates to specialist.
func (s Stage) Next() Stage {
	i := s.index()
	switch {
	case i == -1:
		return StageSpecialist
	case i >= len(stageOrder)-1:
		return StagePartner
	default:
		return stageOrder[i+1]
	}
}

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }
