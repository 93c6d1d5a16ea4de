package dataset

import (
	"errors"
	"fmt"
	"runtime"
)

// Sentinel errors. Both abort a run before any row is produced.
var (
	ErrEmptyInput = errors.New("empty input")
	ErrSchema     = errors.New("schema mismatch")
)

// Orientation decides which corner becomes fighter A.
type Orientation string

const (
	// OrientCorner always puts the red corner in A.
	OrientCorner Orientation = "corner"
	// OrientHashed picks A from a stable hash of the fight id. This balances
	// labels when the scraper lists winners in the red corner.
	OrientHashed Orientation = "hashed"
)

// Options controls dataset assembly.
type Options struct {
	// Workers bounds the parallelism of both phases. Zero means NumCPU.
	Workers int
	// Mirror adds a sign-flipped B-vs-A row for every fight.
	Mirror bool
	// KeepUnlabeled emits draws and no-contests with a missing label instead
	// of dropping them.
	KeepUnlabeled bool
	Orientation   Orientation
	// MissingThreshold is the missing-feature share above which a row is
	// counted as high-missing in the diagnostics.
	MissingThreshold float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Workers:          runtime.NumCPU(),
		Orientation:      OrientCorner,
		MissingThreshold: 0.5,
	}
}

func (o Options) validate() error {
	switch o.Orientation {
	case OrientCorner, OrientHashed:
	default:
		return fmt.Errorf("unknown orientation %q", o.Orientation)
	}
	if o.MissingThreshold < 0 || o.MissingThreshold > 1 {
		return fmt.Errorf("missing threshold %.2f outside [0,1]", o.MissingThreshold)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}
