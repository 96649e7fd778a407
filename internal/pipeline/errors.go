package pipeline

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

// Stage names the step of a dataset run that failed.
type Stage string

const (
	StageFetch        Stage = "fetch"
	StagePersistRaw   Stage = "persist-raw"
	StageLoadRaw      Stage = "load-raw"
	StageParse        Stage = "parse"
	StageValidate     Stage = "validate"
	StageTransform    Stage = "transform"
	StagePersistClean Stage = "persist-clean"
	StageMirror       Stage = "mirror"
	StageNotify       Stage = "notify"
)

// RunError attributes a failure to a dataset and a stage. The typed cause is
// reachable with errors.As.
type RunError struct {
	Identifier string
	Stage      Stage
	Err        error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("dataset %s: %s: %v", e.Identifier, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// normalizeStage maps a normalizer failure to the step that produced it.
func normalizeStage(err error) Stage {
	var (
		pe *domain.ParseError
		se *domain.SchemaError
		te *domain.TimestampError
	)
	switch {
	case errors.As(err, &pe):
		return StageParse
	case errors.As(err, &se):
		return StageValidate
	case errors.As(err, &te):
		return StageTransform
	default:
		return StagePersistClean
	}
}

// fetchStage maps a fetcher failure to the step that produced it.
func fetchStage(err error) Stage {
	if domain.IsTransportError(err) {
		return StageFetch
	}
	return StagePersistRaw
}
