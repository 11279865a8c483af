package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const vacanciesPath = "/vacancies"

type QuestionType string

const (
	QuestionYesNo    QuestionType = "yes_no"
	QuestionFreeText QuestionType = "free_text"
)

type IntakeQuestion struct {
	ID       int          `json:"id"`
	Question string       `json:"question"`
	QType    QuestionType `json:"qtype"`
}

// VacancyRef is a public vacancy as returned by the backend. It is never mutated after fetch.
type VacancyRef struct {
	ID              int              `json:"id"`
	Title           string           `json:"title"`
	Location        string           `json:"location,omitempty"`
	HoursPerWeek    string           `json:"hours_per_week,omitempty"`
	SalaryRange     string           `json:"salary_range,omitempty"`
	Description     string           `json:"description,omitempty"`
	IntakeQuestions []IntakeQuestion `json:"intake_questions"`
}

// IsYesNo reports whether the question is answered with a yes/no choice.
// Unknown types are treated as free text.
func (q IntakeQuestion) IsYesNo() bool {
	return q.QType == QuestionYesNo
}

func (v *VacancyRef) HasIntake() bool {
	return v != nil && len(v.IntakeQuestions) > 0
}

type Vacancies struct {
	Items []*VacancyRef
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id int) *VacancyRef {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// ListVacancies returns the public vacancies, optionally narrowed by the backend search.
func (c *Client) ListVacancies(ctx context.Context, search, location string) (*Vacancies, error) {
	q := url.Values{}
	if search = strings.TrimSpace(search); search != "" {
		q.Set("search", search)
	}
	if location = strings.TrimSpace(location); location != "" {
		q.Set("location", location)
	}

	var items []*VacancyRef
	if err := c.getJSON(ctx, vacanciesPath, q, &items); err != nil {
		return nil, fmt.Errorf("list vacancies: %w", err)
	}

	return &Vacancies{Items: items}, nil
}

func (c *Client) GetVacancy(ctx context.Context, id int) (*VacancyRef, error) {
	var vacancy VacancyRef
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", vacanciesPath, id), nil, &vacancy); err != nil {
		return nil, fmt.Errorf("get vacancy %d: %w", id, err)
	}

	return &vacancy, nil
}
