package snapshot

import "fmt"

// Stage names the part of a cycle that failed.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageSample   Stage = "sample"
	StageRender   Stage = "render"
	StagePersist  Stage = "persist"
	StageIndex    Stage = "index"
)

// CycleError reports a failed sampling cycle. The cycle is abandoned without
// publishing any artifact unless Stage is StageIndex.
type CycleError struct {
	Timestamp int64
	Stage     Stage
	Err       error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %d: %s: %v", e.Timestamp, e.Stage, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// StartupError reports that the pair could not be resolved at process start.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup: %v", e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
