package wizard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/peanuts-cli/internal/apperr"
	"github.com/spigell/peanuts-cli/internal/platform"
	"github.com/spigell/peanuts-cli/internal/session"
)

type Step int

const (
	StepPersonalInfo Step = iota + 1
	StepCVUpload
	StepIntakeQuestions
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepPersonalInfo:
		return "personal_info"
	case StepCVUpload:
		return "cv_upload"
	case StepIntakeQuestions:
		return "intake_questions"
	case StepResult:
		return "result"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

const (
	minPasswordLength = 8

	AnswerYes = "Ja"
	AnswerNo  = "Nee"
)

var (
	ErrBusy             = errors.New("submission in progress")
	ErrAlreadySubmitted = errors.New("application already submitted")
	ErrBackNotAllowed   = errors.New("cannot go back from this step")
	ErrNotLastStep      = errors.New("submission is only possible from the last step")
)

// Applier performs the single apply request.
type Applier interface {
	Apply(ctx context.Context, vacancyID int, form *platform.ApplicationForm) (*platform.ApplicationResult, error)
}

// Sessions receives the token issued by a successful application and is torn down on auth failures.
type Sessions interface {
	Begin(s session.Session) error
	End() error
}

type CVFile struct {
	Name string
	Data []byte
}

// Draft is the transient application state. It is discarded after a successful submission.
type Draft struct {
	FullName string
	Email    string
	Password string
	CV       *CVFile
	Answers  []platform.Answer
}

// Controller drives one application for one vacancy and submits it exactly once.
type Controller struct {
	mu sync.Mutex

	vacancy   *platform.VacancyRef
	hasIntake bool
	applier   Applier
	sessions  Sessions
	logger    *zap.Logger

	draft      Draft
	step       Step
	submitting bool
	result     *platform.ApplicationResult
	lastErr    error
}

func New(vacancy *platform.VacancyRef, applier Applier, sessions Sessions, logger *zap.Logger) (*Controller, error) {
	if vacancy == nil {
		return nil, fmt.Errorf("vacancy is required")
	}
	if applier == nil {
		return nil, fmt.Errorf("applier is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	answers := make([]platform.Answer, 0, len(vacancy.IntakeQuestions))
	for _, q := range vacancy.IntakeQuestions {
		answers = append(answers, platform.Answer{QuestionID: q.ID})
	}

	return &Controller{
		vacancy:   vacancy,
		hasIntake: vacancy.HasIntake(),
		applier:   applier,
		sessions:  sessions,
		logger:    logger.With(zap.Int("vacancy_id", vacancy.ID)),
		draft:     Draft{Answers: answers},
		step:      StepPersonalInfo,
	}, nil
}

func (c *Controller) Vacancy() *platform.VacancyRef {
	return c.vacancy
}

func (c *Controller) HasIntake() bool {
	return c.hasIntake
}

func (c *Controller) TotalSteps() int {
	if c.hasIntake {
		return 3
	}
	return 2
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Err returns the error surfaced by the last Advance, Submit or Back call.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Result() *platform.ApplicationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Draft returns a copy of the entered data.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	d.Answers = append([]platform.Answer(nil), c.draft.Answers...)
	return d
}

// Progress is the completion percentage shown above the form.
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step >= StepResult {
		return 100
	}
	return int(math.Round(float64(c.step) / float64(c.TotalSteps()) * 100))
}

func (c *Controller) SetPersonalInfo(fullName, email, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.draft.FullName = fullName
	c.draft.Email = email
	c.draft.Password = password
	return nil
}

func (c *Controller) SelectCV(file *CVFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.draft.CV = file
	return nil
}

// SetAnswer records the answer for one intake question. Empty answers are allowed.
func (c *Controller) SetAnswer(questionID int, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	for i := range c.draft.Answers {
		if c.draft.Answers[i].QuestionID == questionID {
			c.draft.Answers[i].AnswerText = answer
			return nil
		}
	}
	return fmt.Errorf("vacancy %d has no intake question %d", c.vacancy.ID, questionID)
}

func (c *Controller) editable() error {
	if c.submitting {
		return ErrBusy
	}
	if c.step == StepResult {
		return ErrAlreadySubmitted
	}
	return nil
}

// Validate checks the data belonging to step. It never touches the network.
func (c *Controller) Validate(step Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validate(step)
}

func (c *Controller) validate(step Step) error {
	switch step {
	case StepPersonalInfo:
		if strings.TrimSpace(c.draft.FullName) == "" {
			return apperr.Validation("Vul je volledige naam in.")
		}
		if !strings.Contains(c.draft.Email, "@") {
			return apperr.Validation("Vul een geldig e-mailadres in.")
		}
		if utf8.RuneCountInString(c.draft.Password) < minPasswordLength {
			return apperr.Validation(fmt.Sprintf("Wachtwoord moet minimaal %d tekens bevatten.", minPasswordLength))
		}
	case StepCVUpload:
		if c.draft.CV == nil {
			return apperr.Validation("Upload je CV (PDF of DOCX).")
		}
	}
	return nil
}

// validateContent re-checks every content step, since earlier data may be edited after moving on.
func (c *Controller) validateContent() error {
	for step := StepPersonalInfo; step <= c.lastContentStep(); step++ {
		if err := c.validate(step); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) lastContentStep() Step {
	if c.hasIntake {
		return StepIntakeQuestions
	}
	return StepCVUpload
}

// Advance validates the current step and moves forward, or submits when the current step is the last one.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if err := c.editable(); err != nil {
		c.mu.Unlock()
		return err
	}

	c.lastErr = nil
	if err := c.validate(c.step); err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	if c.step != c.lastContentStep() {
		c.step++
		c.logger.Debug("wizard advanced", zap.Stringer("step", c.step))
		c.mu.Unlock()
		return nil
	}

	if err := c.validateContent(); err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	form := c.beginSubmit()
	c.mu.Unlock()

	return c.submit(ctx, form)
}

// Submit sends the application from the last step. Advance calls it implicitly.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.editable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step != c.lastContentStep() {
		c.mu.Unlock()
		return ErrNotLastStep
	}

	c.lastErr = nil
	if err := c.validateContent(); err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	form := c.beginSubmit()
	c.mu.Unlock()

	return c.submit(ctx, form)
}

// beginSubmit takes the submitting guard and snapshots the form. Callers hold mu.
func (c *Controller) beginSubmit() *platform.ApplicationForm {
	c.submitting = true

	return &platform.ApplicationForm{
		FullName:   c.draft.FullName,
		Email:      c.draft.Email,
		Password:   c.draft.Password,
		CVFileName: c.draft.CV.Name,
		CVData:     c.draft.CV.Data,
		Answers:    append([]platform.Answer(nil), c.draft.Answers...),
	}
}

func (c *Controller) submit(ctx context.Context, form *platform.ApplicationForm) error {
	c.logger.Info("submitting application",
		zap.Int("answers", len(form.Answers)),
		zap.String("cv_file", form.CVFileName),
	)

	result, err := c.applier.Apply(ctx, c.vacancy.ID, form)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		if apperr.IsAuthorization(err) && c.sessions != nil {
			if endErr := c.sessions.End(); endErr != nil {
				c.logger.Warn("clearing session failed", zap.Error(endErr))
			}
		}
		c.lastErr = err
		c.logger.Warn("application failed", zap.Stringer("step", c.step), zap.Error(err))
		return err
	}

	if c.sessions != nil {
		err := c.sessions.Begin(session.Session{
			Token: result.AuthToken,
			Role:  session.RoleCandidate,
			Email: form.Email,
		})
		if err != nil {
			c.logger.Warn("storing session after application failed", zap.Error(err))
		}
	}

	c.result = result
	c.step = StepResult
	c.draft = Draft{}

	c.logger.Info("application submitted",
		zap.Int("application_id", result.ApplicationID),
		zap.Int("match_score", result.MatchScore),
	)
	return nil
}

// Back returns to the previous step, keeping everything entered so far.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	if c.step <= StepPersonalInfo || c.step == StepResult {
		return ErrBackNotAllowed
	}
	c.lastErr = nil
	c.step--
	return nil
}
