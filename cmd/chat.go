package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/peanuts-cli/internal/apperr"
	"github.com/spigell/peanuts-cli/internal/conversation"
	"github.com/spigell/peanuts-cli/internal/platform"
	"github.com/spigell/peanuts-cli/internal/session"
)

const quitCommand = "/stop"

var chatCmd = &cobra.Command{
	Use:   "chat <application-id>",
	Short: "Talk to the recruiter about an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		applicationID, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || applicationID <= 0 {
			return fmt.Errorf("invalid application id %q", args[0])
		}

		return d.fail(chat(cmd, d, applicationID))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chat(cmd *cobra.Command, d *deps, applicationID int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if _, err := d.requireSession(session.RoleCandidate); err != nil {
		return err
	}

	s, err := conversation.New(applicationID, d.client, d.sessions, d.logger)
	if err != nil {
		return err
	}

	if err := s.Open(ctx); err != nil {
		return err
	}

	printer := newTranscript(out)
	printer.print(s.Messages())

	for !s.Ended() {
		p := promptui.Prompt{
			Label:     fmt.Sprintf("Jij (%s om te stoppen)", quitCommand),
			Default:   s.Draft(),
			AllowEdit: true,
		}
		content, err := p.Run()
		if err != nil {
			return promptErr(err)
		}
		if strings.TrimSpace(content) == quitCommand {
			return nil
		}

		err = s.Send(ctx, content)
		switch {
		case err == nil:
			printer.print(s.Messages())
		case errors.Is(err, conversation.ErrEmptyMessage):
		case apperr.IsAuthorization(err):
			return err
		case apperr.IsKind(err, apperr.KindTransport):
			fmt.Fprintf(out, "! %s\n", apperr.UserMessage(err))
		default:
			return err
		}
	}

	fmt.Fprintf(out, "\nHet gesprek is afgerond na %d vragen van de recruiter. Bedankt!\n", s.RecruiterTurns())
	return nil
}

// transcript prints every recruiter message once. Candidate messages are already on screen as typed.
type transcript struct {
	out   io.Writer
	seen  map[string]bool
	first bool
}

func newTranscript(out io.Writer) *transcript {
	return &transcript{out: out, seen: map[string]bool{}, first: true}
}

func (t *transcript) print(messages []platform.Message) {
	for _, m := range messages {
		if t.seen[m.ID] {
			continue
		}
		t.seen[m.ID] = true

		switch {
		case m.Role == platform.RoleRecruiter:
			fmt.Fprintf(t.out, "Recruiter: %s\n", m.Content)
		case t.first:
			fmt.Fprintf(t.out, "Jij: %s\n", m.Content)
		}
	}
	t.first = false
}
