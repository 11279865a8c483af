package ai

import "context"

const (
	MinScore = 0
	MaxScore = 100
)

// Assessment is the outcome of scoring one CV against one job text.
type Assessment struct {
	Score       int
	Explanation string
	Raw         string
}

// Scorer scores a candidate profile against a job description.
// Implementations make exactly one scoring call per invocation.
type Scorer interface {
	Score(ctx context.Context, profileText, jobDescription string) (*Assessment, error)
}
