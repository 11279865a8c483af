package platform

import (
	"context"
	"fmt"
)

const jobsPath = "/ats/jobs"

type JobRecord struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	CompanyID   int    `json:"company_id,omitempty"`
	Company     string `json:"company_name,omitempty"`
	Location    string `json:"location,omitempty"`
	SalaryRange string `json:"salary_range,omitempty"`
	Description string `json:"description,omitempty"`
}

// CompanyName falls back to the company id when the backend has no name.
func (j JobRecord) CompanyName() string {
	if j.Company != "" {
		return j.Company
	}
	return fmt.Sprintf("Bedrijf #%d", j.CompanyID)
}

func (c *Client) ListJobs(ctx context.Context) ([]JobRecord, error) {
	var jobs []JobRecord
	if err := c.getJSON(ctx, jobsPath, nil, &jobs); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return jobs, nil
}
