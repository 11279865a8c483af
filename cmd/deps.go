package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/peanuts-cli/internal/apperr"
	"github.com/spigell/peanuts-cli/internal/logger"
	"github.com/spigell/peanuts-cli/internal/platform"
	"github.com/spigell/peanuts-cli/internal/saved"
	"github.com/spigell/peanuts-cli/internal/session"
)

var (
	errSessionRejected = fmt.Errorf("session expired or rejected, run `%s login`", app)
	errAborted         = errors.New("aborted")
)

// deps is what every command needs: config, logger, the session and the platform client.
type deps struct {
	config   *Config
	logger   *zap.Logger
	sessions *session.Context
	client   *platform.Client
	saved    *saved.Store
}

func newDeps(cmd *cobra.Command) (*deps, error) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	store, err := session.NewStore(config.SessionFile)
	if err != nil {
		return nil, err
	}

	sessions, err := session.Open(store, l)
	if err != nil {
		return nil, fmt.Errorf("loading session from %s: %w", store.Path(), err)
	}

	client := platform.New(l, sessions).WithTimeout(config.Timeout)
	if config.APIURL != "" {
		client.APIURL = config.APIURL
	}
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	l = logger.ForCommand(l, cmd.Name(), client.APIURL, string(sessions.Role()))
	l.Debug("starting", zap.String("version", version), zap.String("session_file", store.Path()))

	return &deps{config: config, logger: l, sessions: sessions, client: client, saved: saved.NextTo(store.Path())}, nil
}

// requireSession returns the stored session when it exists, has one of roles and is not expired.
// An expired token is dropped right away instead of being sent to the backend.
func (d *deps) requireSession(roles ...session.Role) (session.Session, error) {
	s, err := d.sessions.Require(roles...)
	if errors.Is(err, session.ErrNoSession) {
		return s, fmt.Errorf("not logged in, run `%s login`", app)
	}
	if err != nil {
		return s, err
	}

	claims, err := session.Inspect(s.Token)
	if err != nil {
		d.logger.Debug("token claims are not readable", zap.Error(err))
		return s, nil
	}
	if claims.Expired(time.Now()) {
		d.logger.Info("stored token is expired", zap.Time("expired_at", claims.ExpiresAt))
		d.endSession()
		return session.Session{}, errSessionRejected
	}

	return s, nil
}

// fail turns err into what the user sees. Authorization errors end the session.
func (d *deps) fail(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errAborted) {
		return nil
	}

	d.logger.Debug("command failed", zap.Error(err))

	if apperr.IsAuthorization(err) {
		d.endSession()
		return errSessionRejected
	}

	return errors.New(apperr.UserMessage(err))
}

func (d *deps) endSession() {
	if err := d.sessions.End(); err != nil {
		d.logger.Warn("clearing session failed", zap.Error(err))
	}
}

// promptErr maps ctrl-c and ctrl-d to errAborted.
func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errAborted
	}
	return err
}
