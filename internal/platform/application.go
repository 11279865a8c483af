package platform

import (
	"context"
	"encoding/json"
	"fmt"
)

type Answer struct {
	QuestionID int    `json:"question_id"`
	AnswerText string `json:"answer"`
}

// ApplicationForm is everything sent in the single apply request.
type ApplicationForm struct {
	FullName   string
	Email      string
	Password   string
	CVFileName string
	CVData     []byte
	Answers    []Answer
}

type ApplicationResult struct {
	ApplicationID int    `json:"application_id"`
	MatchScore    int    `json:"match_score"`
	Explanation   string `json:"explanation"`
	AuthToken     string `json:"access_token"`
}

// Apply submits one application as a multipart request.
func (c *Client) Apply(ctx context.Context, vacancyID int, form *ApplicationForm) (*ApplicationResult, error) {
	if form == nil {
		return nil, fmt.Errorf("application form is required")
	}

	answers := form.Answers
	if answers == nil {
		answers = []Answer{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode intake answers: %w", err)
	}

	fields := map[string]string{
		"full_name":           form.FullName,
		"email":               form.Email,
		"password":            form.Password,
		"intake_answers_json": string(answersJSON),
	}
	files := []FormFile{{
		Field:    "cv_file",
		FileName: form.CVFileName,
		Data:     form.CVData,
	}}

	var result ApplicationResult
	path := fmt.Sprintf("%s/%d/apply", vacanciesPath, vacancyID)
	if err := c.postFormData(ctx, path, fields, files, &result); err != nil {
		return nil, fmt.Errorf("apply to vacancy %d: %w", vacancyID, err)
	}

	result.MatchScore = clampScore(float64(result.MatchScore))

	return &result, nil
}
