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
	"github.com/spigell/peanuts-cli/internal/platform"
	"github.com/spigell/peanuts-cli/internal/secrets"
	"github.com/spigell/peanuts-cli/internal/wizard"
)

const (
	PromptNext   = "Volgende"
	PromptSubmit = "Versturen"
	PromptBack   = "Terug"
	PromptStop   = "Stoppen"
	PromptSkip   = "Overslaan"
)

var applyCmd = &cobra.Command{
	Use:   "apply <vacancy-id>",
	Short: "Apply to a vacancy step by step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		return d.fail(applyToVacancy(cmd, d, args[0]))
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().String("full-name", "", "prefill the full name")
	applyCmd.Flags().StringP("email", "e", "", "prefill the email")
	applyCmd.Flags().String("password-file", "", "prefill the password from a file (or "+passwordEnv+")")
	applyCmd.Flags().String("cv-file", "", "prefill the cv (.pdf, .docx or .txt)")
	applyCmd.Flags().Bool("chat", false, "start the recruiter chat right after applying")
}

func applyToVacancy(cmd *cobra.Command, d *deps, arg string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	vacancyID, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || vacancyID <= 0 {
		return fmt.Errorf("invalid vacancy id %q", arg)
	}

	vacancy, err := d.client.GetVacancy(ctx, vacancyID)
	if err != nil {
		return err
	}

	controller, err := wizard.New(vacancy, d.client, d.sessions, d.logger)
	if err != nil {
		return err
	}
	if err := prefillWizard(cmd, controller); err != nil {
		return err
	}

	fmt.Fprintf(out, "Solliciteren op %s", vacancy.Title)
	if vacancy.Location != "" {
		fmt.Fprintf(out, " (%s)", vacancy.Location)
	}
	fmt.Fprintln(out)

	for controller.Step() != wizard.StepResult {
		step := controller.Step()
		fmt.Fprintf(out, "\nStap %d van %d (%d%%): %s\n", int(step), controller.TotalSteps(), controller.Progress(), stepTitle(step))

		if err := fillStep(controller, step); err != nil {
			return promptErr(err)
		}

		last := (step == wizard.StepCVUpload && !controller.HasIntake()) || step == wizard.StepIntakeQuestions
		action, err := navigate(step, last)
		if err != nil {
			return promptErr(err)
		}

		switch action {
		case PromptStop:
			return errAborted
		case PromptBack:
			if err := controller.Back(); err != nil {
				return err
			}
			continue
		}

		if last {
			fmt.Fprintln(out, "Sollicitatie wordt verstuurd...")
		}

		err = controller.Advance(ctx)
		switch {
		case err == nil:
		case apperr.IsKind(err, apperr.KindValidation), apperr.IsKind(err, apperr.KindTransport):
			fmt.Fprintf(out, "! %s\n", apperr.UserMessage(err))
		default:
			return err
		}
	}

	result := controller.Result()
	printApplicationResult(out, result)

	startChat, _ := cmd.Flags().GetBool("chat")
	if !startChat {
		confirm := promptui.Prompt{Label: "Gesprek met de recruiter starten", IsConfirm: true}
		if _, err := confirm.Run(); err == nil {
			startChat = true
		} else if !errors.Is(err, promptui.ErrAbort) {
			return promptErr(err)
		}
	}
	if !startChat {
		fmt.Fprintf(out, "Later verder: %s chat %d\n", app, result.ApplicationID)
		return nil
	}

	return chat(cmd, d, result.ApplicationID)
}

func prefillWizard(cmd *cobra.Command, controller *wizard.Controller) error {
	fullName, _ := cmd.Flags().GetString("full-name")
	email, _ := cmd.Flags().GetString("email")
	passwordFile, _ := cmd.Flags().GetString("password-file")
	cvFile, _ := cmd.Flags().GetString("cv-file")

	var password string
	if src := (secrets.Source{Name: "password", File: passwordFile, Env: passwordEnv}); src.Configured() {
		value, err := secrets.Load(src)
		if err != nil {
			return err
		}
		password = value
	}

	if err := controller.SetPersonalInfo(fullName, email, password); err != nil {
		return err
	}

	if cvFile != "" {
		cv, err := wizard.LoadCVFile(cvFile)
		if err != nil {
			return err
		}
		if err := controller.SelectCV(cv); err != nil {
			return err
		}
	}

	return nil
}

func stepTitle(step wizard.Step) string {
	switch step {
	case wizard.StepPersonalInfo:
		return "Persoonlijke gegevens"
	case wizard.StepCVUpload:
		return "CV uploaden"
	case wizard.StepIntakeQuestions:
		return "Intakevragen"
	default:
		return "Resultaat"
	}
}

func fillStep(controller *wizard.Controller, step wizard.Step) error {
	draft := controller.Draft()

	switch step {
	case wizard.StepPersonalInfo:
		fullName, err := (&promptui.Prompt{Label: "Volledige naam", Default: draft.FullName, AllowEdit: true}).Run()
		if err != nil {
			return err
		}
		email, err := (&promptui.Prompt{Label: "E-mailadres", Default: draft.Email, AllowEdit: true}).Run()
		if err != nil {
			return err
		}

		label := "Wachtwoord"
		if draft.Password != "" {
			label = "Wachtwoord (leeg laten om te behouden)"
		}
		password, err := (&promptui.Prompt{Label: label, Mask: '*'}).Run()
		if err != nil {
			return err
		}
		if password == "" {
			password = draft.Password
		}

		return controller.SetPersonalInfo(strings.TrimSpace(fullName), strings.TrimSpace(email), password)

	case wizard.StepCVUpload:
		label := "Pad naar je CV (PDF, DOCX of TXT)"
		if draft.CV != nil {
			label = fmt.Sprintf("Pad naar je CV (leeg laten voor %s)", draft.CV.Name)
		}
		p := promptui.Prompt{
			Label: label,
			Validate: func(input string) error {
				if strings.TrimSpace(input) == "" && draft.CV != nil {
					return nil
				}
				_, err := wizard.LoadCVFile(input)
				return err
			},
		}
		path, err := p.Run()
		if err != nil {
			return err
		}
		if strings.TrimSpace(path) == "" {
			return nil
		}

		cv, err := wizard.LoadCVFile(path)
		if err != nil {
			return err
		}
		return controller.SelectCV(cv)

	case wizard.StepIntakeQuestions:
		for i, q := range controller.Vacancy().IntakeQuestions {
			answer, err := askIntakeQuestion(q, draft.Answers[i].AnswerText)
			if err != nil {
				return err
			}
			if err := controller.SetAnswer(q.ID, answer); err != nil {
				return err
			}
		}
	}

	return nil
}

func askIntakeQuestion(q platform.IntakeQuestion, current string) (string, error) {
	if q.IsYesNo() {
		items := []string{wizard.AnswerYes, wizard.AnswerNo, PromptSkip}
		pos := 0
		if current == wizard.AnswerNo {
			pos = 1
		}
		s := promptui.Select{Label: q.Question, Items: items, CursorPos: pos}
		_, answer, err := s.Run()
		if err != nil {
			return "", err
		}
		if answer == PromptSkip {
			return "", nil
		}
		return answer, nil
	}

	p := promptui.Prompt{Label: q.Question, Default: current, AllowEdit: true}
	answer, err := p.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func navigate(step wizard.Step, last bool) (string, error) {
	items := []string{PromptNext}
	if last {
		items = []string{PromptSubmit}
	}
	if step > wizard.StepPersonalInfo {
		items = append(items, PromptBack)
	}
	items = append(items, PromptStop)

	s := promptui.Select{Label: "Verder?", Items: items}
	_, action, err := s.Run()
	return action, err
}

func printApplicationResult(out io.Writer, result *platform.ApplicationResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Je sollicitatie is verstuurd!")
	fmt.Fprintf(out, "Matchscore: %d/100 (%s)\n", result.MatchScore, bandLabel(wizard.ScoreBand(result.MatchScore)))
	if result.Explanation != "" {
		fmt.Fprintln(out, result.Explanation)
	}
	fmt.Fprintf(out, "Sollicitatie #%d\n\n", result.ApplicationID)
}

func bandLabel(band wizard.Band) string {
	switch band {
	case wizard.BandStrong:
		return "sterke match"
	case wizard.BandModerate:
		return "redelijke match"
	default:
		return "zwakke match"
	}
}
