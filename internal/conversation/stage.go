// Package conversation holds per-user dialogue state: the captured display
// name, the confirmed summoner handle and the current stage.
package conversation

import (
	"fmt"

	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
)

// Stage is the dialogue position of one user.
type Stage int

const (
	StageAwaitingName Stage = iota
	StageAwaitingNameConfirmation
	StageAwaitingSummonerName
	StageReady
)

var stageNames = map[Stage]string{
	StageAwaitingName:             "awaiting_name",
	StageAwaitingNameConfirmation: "awaiting_name_confirmation",
	StageAwaitingSummonerName:     "awaiting_summoner_name",
	StageReady:                    "ready",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// allowedTransitions lists the stages reachable from each stage, besides itself.
var allowedTransitions = map[Stage][]Stage{
	StageAwaitingName:             {StageAwaitingNameConfirmation, StageAwaitingSummonerName},
	StageAwaitingNameConfirmation: {StageAwaitingName, StageAwaitingSummonerName},
	StageAwaitingSummonerName:     {StageReady, StageAwaitingName},
	StageReady:                    {StageAwaitingName},
}

// CanTransitionTo reports whether the stage may change to next.
func (s Stage) CanTransitionTo(next Stage) bool {
	if s == next {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error wrapping ErrInvalidTransition when
// the change from s to next is not allowed.
func (s Stage) ValidateTransition(next Stage) error {
	if s.CanTransitionTo(next) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", domerrors.ErrInvalidTransition, s, next)
}
