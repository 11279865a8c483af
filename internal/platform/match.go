package platform

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spigell/peanuts-cli/internal/ai"
)

const matchJobPath = "/ai/match-job"

type matchRequest struct {
	CandidateProfileText string `json:"candidate_profile_text"`
	JobDescription       string `json:"job_description"`
}

// The backend has shipped both shapes; the newer one names the fields score/summary.
type matchResponse struct {
	MatchScore  *float64 `json:"match_score"`
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
	Summary     string   `json:"summary"`
}

// Score implements ai.Scorer against the backend scoring endpoint.
func (c *Client) Score(ctx context.Context, profileText, jobDescription string) (*ai.Assessment, error) {
	payload := matchRequest{
		CandidateProfileText: profileText,
		JobDescription:       jobDescription,
	}

	var resp matchResponse
	if err := c.postJSON(ctx, matchJobPath, payload, &resp); err != nil {
		return nil, fmt.Errorf("match job: %w", err)
	}

	score := resp.MatchScore
	if score == nil {
		score = resp.Score
	}
	if score == nil || math.IsNaN(*score) {
		return nil, fmt.Errorf("match job: response has no score")
	}

	explanation := strings.TrimSpace(resp.Explanation)
	if explanation == "" {
		explanation = strings.TrimSpace(resp.Summary)
	}

	return &ai.Assessment{
		Score:       clampScore(*score),
		Explanation: explanation,
	}, nil
}

func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < ai.MinScore {
		return ai.MinScore
	}
	if rounded > ai.MaxScore {
		return ai.MaxScore
	}
	return rounded
}
