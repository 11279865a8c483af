package ranking

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/peanuts-cli/internal/ai"
	"github.com/spigell/peanuts-cli/internal/apperr"
)

const (
	msgNoJobs      = "Er zijn geen vacatures om te matchen."
	msgNoCV        = "Voeg eerst de tekst van je CV toe."
	msgAllFailed   = "Geen enkele vacature kon worden beoordeeld. Probeer het later opnieuw."
	msgItemFailure = "scoring failed"
)

// ItemResult is the outcome of the scoring stage for one job.
type ItemResult struct {
	Index   int
	Job     *Job
	Outcome Outcome
	Err     error
	Skipped bool
}

// Report summarises one ranking run.
type Report struct {
	Total   int
	Scored  int
	Failed  int
	Skipped int
	// Unauthorized is set when at least one scoring call was rejected with 401 or 403.
	Unauthorized bool
}

// Partial reports whether some, but not all, scoring calls failed.
func (r Report) Partial() bool {
	return r.Failed > 0 && r.Scored > 0
}

// ProgressFunc is called after every job, in job order.
type ProgressFunc func(done, total int)

// Pipeline scores jobs against one CV, one call at a time.
type Pipeline struct {
	scorer   ai.Scorer
	logger   *zap.Logger
	progress ProgressFunc
}

func New(scorer ai.Scorer, logger *zap.Logger) (*Pipeline, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{scorer: scorer, logger: logger}, nil
}

func (p *Pipeline) WithProgress(fn ProgressFunc) *Pipeline {
	p.progress = fn
	return p
}

// Items scores the jobs sequentially and yields one result per job. Failures never stop the loop.
// Jobs without a description are skipped. Once ctx is done the remaining jobs fail without a call.
func (p *Pipeline) Items(ctx context.Context, cvText string, jobs []*Job) iter.Seq[ItemResult] {
	return func(yield func(ItemResult) bool) {
		for i, job := range jobs {
			res := ItemResult{Index: i, Job: job, Outcome: Unscored{}}

			switch {
			case strings.TrimSpace(job.Description) == "":
				res.Skipped = true
			case ctx.Err() != nil:
				res.Err = apperr.PartialBatch(msgItemFailure, ctx.Err())
			default:
				assessment, err := p.scorer.Score(ctx, cvText, job.Description)
				if err != nil {
					res.Err = apperr.PartialBatch(msgItemFailure, err)
				} else {
					res.Outcome = Scored{Score: assessment.Score, Explanation: assessment.Explanation}
				}
			}

			if !yield(res) {
				return
			}
		}
	}
}

// Run scores jobs and sorts them best first in place. Previous scores are cleared first.
// When no job could be scored the order is left untouched and an aggregate error is returned.
func (p *Pipeline) Run(ctx context.Context, cvText string, jobs []*Job) (Report, error) {
	if len(jobs) == 0 {
		return Report{}, apperr.Validation(msgNoJobs)
	}
	if strings.TrimSpace(cvText) == "" {
		return Report{}, apperr.Validation(msgNoCV)
	}

	for _, job := range jobs {
		job.Outcome = Unscored{}
	}

	report := Report{Total: len(jobs)}
	done := 0
	for res := range p.Items(ctx, cvText, jobs) {
		done++
		res.Job.Outcome = res.Outcome

		switch {
		case res.Skipped:
			report.Skipped++
			p.logger.Debug("job without description skipped", zap.Int("job_id", res.Job.ID))
		case res.Err != nil:
			report.Failed++
			if apperr.IsAuthorization(res.Err) {
				report.Unauthorized = true
			}
			p.logger.Warn("scoring failed. Job stays unscored.",
				zap.Int("job_id", res.Job.ID),
				zap.String("title", res.Job.Title),
				zap.Error(res.Err),
			)
		default:
			report.Scored++
			score, _ := res.Job.Score()
			p.logger.Debug("job scored", zap.Int("job_id", res.Job.ID), zap.Int("score", score))
		}

		if p.progress != nil {
			p.progress(done, report.Total)
		}
	}

	p.logger.Info("ranking completed",
		zap.Int("total", report.Total),
		zap.Int("scored", report.Scored),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)

	if report.Scored == 0 {
		return report, apperr.Aggregate(msgAllFailed)
	}

	Sort(jobs)
	return report, nil
}
