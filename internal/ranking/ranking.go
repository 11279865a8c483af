package ranking

import (
	"cmp"
	"slices"

	"github.com/spigell/peanuts-cli/internal/platform"
)

// Outcome is either Unscored or Scored.
type Outcome interface {
	outcome()
}

type Unscored struct{}

type Scored struct {
	Score       int
	Explanation string
}

func (Unscored) outcome() {}
func (Scored) outcome()   {}

// Job is one job record annotated with its scoring outcome.
type Job struct {
	platform.JobRecord
	Outcome Outcome
}

func NewJob(record platform.JobRecord) *Job {
	return &Job{JobRecord: record, Outcome: Unscored{}}
}

// Score reports the score and whether the job has one.
func (j *Job) Score() (int, bool) {
	if s, ok := j.Outcome.(Scored); ok {
		return s.Score, true
	}
	return 0, false
}

func (j *Job) Explanation() string {
	if s, ok := j.Outcome.(Scored); ok {
		return s.Explanation
	}
	return ""
}

// Compare orders a before b when a has the higher score. Unscored sorts below any score.
func Compare(a, b Outcome) int {
	switch a := a.(type) {
	case Scored:
		switch b := b.(type) {
		case Scored:
			return cmp.Compare(b.Score, a.Score)
		default:
			return -1
		}
	default:
		switch b.(type) {
		case Scored:
			return 1
		default:
			return 0
		}
	}
}

// Sort orders jobs best first. Equal outcomes keep their relative order.
func Sort(jobs []*Job) {
	slices.SortStableFunc(jobs, func(a, b *Job) int {
		return Compare(a.Outcome, b.Outcome)
	})
}
