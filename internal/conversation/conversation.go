package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/peanuts-cli/internal/apperr"
	"github.com/spigell/peanuts-cli/internal/platform"
)

// MaxRecruiterTurns is the number of recruiter messages after which the conversation is over.
const MaxRecruiterTurns = 4

type State int

const (
	StateNotStarted State = iota
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrBusy              = errors.New("another request is in flight")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrConversationEnded = errors.New("conversation has ended")
	ErrNotStarted        = errors.New("conversation is not opened")
)

// Backend is the recruiter chat API.
type Backend interface {
	StartConversation(ctx context.Context, applicationID int) (*platform.Message, error)
	Messages(ctx context.Context, applicationID int) ([]platform.Message, error)
	SendMessage(ctx context.Context, applicationID int, content string) (*platform.Message, error)
}

// Sessions is torn down when the backend rejects the token.
type Sessions interface {
	End() error
}

// Session is one bounded recruiter chat for one application.
type Session struct {
	mu sync.Mutex

	applicationID int
	backend       Backend
	sessions      Sessions
	logger        *zap.Logger

	now   func() time.Time
	newID func() string

	state    State
	messages []platform.Message
	busy     bool
	draft    string
	lastErr  error
}

func New(applicationID int, backend Backend, sessions Sessions, logger *zap.Logger) (*Session, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if applicationID <= 0 {
		return nil, fmt.Errorf("invalid application id %d", applicationID)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		applicationID: applicationID,
		backend:       backend,
		sessions:      sessions,
		logger:        logger.With(zap.Int("application_id", applicationID)),
		now:           time.Now,
		newID:         func() string { return "tmp-" + uuid.NewString() },
	}, nil
}

func (s *Session) ApplicationID() int {
	return s.applicationID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Ended() bool {
	return s.State() == StateEnded
}

// Busy reports whether an open or send is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Messages returns the history ordered by creation time.
func (s *Session) Messages() []platform.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// RecruiterTurns counts the recruiter messages currently in the history.
func (s *Session) RecruiterTurns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recruiterTurns(s.messages)
}

// Draft is the text of the last message that could not be sent.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Open starts the conversation if this session has not done so yet and loads the full history.
// On failure a session that was not started stays not started and Open may be retried.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	needsStart := s.state == StateNotStarted
	s.mu.Unlock()

	history, err := s.load(ctx, needsStart)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil {
		s.fail(err)
		s.logger.Warn("opening conversation failed", zap.Stringer("state", s.state), zap.Error(err))
		return err
	}

	s.lastErr = nil
	s.replace(history)
	if s.state == StateNotStarted {
		s.state = StateActive
	}
	s.updateEnded()

	s.logger.Info("conversation opened",
		zap.Stringer("state", s.state),
		zap.Int("messages", len(s.messages)),
		zap.Int("recruiter_turns", recruiterTurns(s.messages)),
	)
	return nil
}

func (s *Session) load(ctx context.Context, start bool) ([]platform.Message, error) {
	if start {
		if _, err := s.backend.StartConversation(ctx, s.applicationID); err != nil {
			return nil, err
		}
	}
	return s.backend.Messages(ctx, s.applicationID)
}

// Send posts content as the candidate. It is rejected without any request when content is empty,
// another request is in flight, or the conversation is not open or has ended.
func (s *Session) Send(ctx context.Context, content string) error {
	s.mu.Lock()
	switch {
	case strings.TrimSpace(content) == "":
		s.mu.Unlock()
		return ErrEmptyMessage
	case s.busy:
		s.mu.Unlock()
		return ErrBusy
	case s.state == StateEnded:
		s.mu.Unlock()
		return ErrConversationEnded
	case s.state == StateNotStarted:
		s.mu.Unlock()
		return ErrNotStarted
	}

	cmd := s.newSendCommand(content)
	cmd.apply()
	s.busy = true
	s.lastErr = nil
	s.mu.Unlock()

	reply, err := s.backend.SendMessage(ctx, s.applicationID, content)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.busy = false
		cmd.compensate()
		s.draft = content
		s.fail(err)
		s.logger.Warn("sending message failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	cmd.commit(reply)
	s.draft = ""
	s.mu.Unlock()

	history, refreshErr := s.backend.Messages(ctx, s.applicationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if refreshErr != nil {
		s.logger.Warn("refreshing messages failed. Keeping local history.", zap.Error(refreshErr))
		if apperr.IsAuthorization(refreshErr) {
			s.endSession()
		}
	} else {
		s.replace(history)
	}
	s.updateEnded()

	s.logger.Info("message sent",
		zap.Int("recruiter_turns", recruiterTurns(s.messages)),
		zap.Stringer("state", s.state),
	)
	return nil
}

// fail records err and tears the session down on authorization errors. Callers hold mu.
func (s *Session) fail(err error) {
	s.lastErr = err
	if apperr.IsAuthorization(err) {
		s.endSession()
	}
}

func (s *Session) endSession() {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.End(); err != nil {
		s.logger.Warn("clearing session failed", zap.Error(err))
	}
}

// updateEnded moves to Ended once the threshold is observed. Ended is never left.
func (s *Session) updateEnded() {
	if s.state != StateEnded && recruiterTurns(s.messages) >= MaxRecruiterTurns {
		s.state = StateEnded
		s.logger.Info("conversation ended", zap.Int("recruiter_turns", recruiterTurns(s.messages)))
	}
}

func (s *Session) replace(history []platform.Message) {
	s.messages = slices.Clone(history)
	sortByTime(s.messages)
}

func recruiterTurns(messages []platform.Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == platform.RoleRecruiter {
			n++
		}
	}
	return n
}

// sortByTime orders messages by CreatedAt. Unparseable timestamps sort as the zero time.
func sortByTime(messages []platform.Message) {
	slices.SortStableFunc(messages, func(a, b platform.Message) int {
		ta, _ := a.Time()
		tb, _ := b.Time()
		return ta.Compare(tb)
	})
}
