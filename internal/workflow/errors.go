package workflow

import "fmt"

// Stage names one step of a redesign run.
type Stage string

const (
	StageDetect           Stage = "detect"
	StageSegment          Stage = "segment"
	StageRateCondition    Stage = "rate_condition"
	StageReasonUpgrades   Stage = "reason_upgrades"
	StageResolveMaterials Stage = "resolve_materials"
	StageGenerate         Stage = "generate"
	StageAnalyze          Stage = "analyze"
	StagePersist          Stage = "persist"
)

// StageError names the stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
