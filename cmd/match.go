package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/peanuts-cli/internal/ai"
	"github.com/spigell/peanuts-cli/internal/ai/gemini"
	"github.com/spigell/peanuts-cli/internal/apperr"
	"github.com/spigell/peanuts-cli/internal/logger"
	"github.com/spigell/peanuts-cli/internal/platform"
	"github.com/spigell/peanuts-cli/internal/ranking"
	"github.com/spigell/peanuts-cli/internal/secrets"
	"github.com/spigell/peanuts-cli/internal/utils"
)

const (
	providerPlatform = "platform"
	providerGemini   = "gemini"

	geminiAPIKeyEnv = "GEMINI_API_KEY"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score jobs against your CV and list them best first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		return d.fail(match(cmd, d))
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("cv-file", "c", "", "text file with your cv, - reads stdin")
	matchCmd.Flags().StringP("query", "q", "", "only jobs whose title, location or description contain this")
	matchCmd.Flags().StringP("location", "l", "", "only jobs in this location")
	matchCmd.Flags().String("provider", "", "scoring provider: platform or gemini")
	matchCmd.Flags().IntP("top", "n", 0, "show only the best n jobs")
	matchCmd.Flags().Bool("saved", false, "only jobs bookmarked with the save command")

	viper.BindPFlag("match.cv-file", matchCmd.Flags().Lookup("cv-file"))
	viper.BindPFlag("match.query", matchCmd.Flags().Lookup("query"))
	viper.BindPFlag("match.location", matchCmd.Flags().Lookup("location"))
	viper.BindPFlag("scoring.provider", matchCmd.Flags().Lookup("provider"))
}

func match(cmd *cobra.Command, d *deps) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := d.config.Match

	if _, err := d.requireSession(); err != nil {
		return err
	}

	cvText, err := readCVText(cmd.InOrStdin(), cfg.CVFile)
	if err != nil {
		return err
	}

	records, err := d.client.ListJobs(ctx)
	if err != nil {
		return err
	}

	total := len(records)
	onlySaved, _ := cmd.Flags().GetBool("saved")
	if onlySaved {
		ids, err := d.saved.IDs()
		if err != nil {
			return err
		}
		records = keepSaved(records, ids)
	}

	jobs := ranking.Filter(records, cfg.Query, cfg.Location)
	d.logger.Info("jobs selected",
		zap.Int("total", total),
		zap.Int("selected", len(jobs)),
		zap.String("query", cfg.Query),
		zap.String("location", cfg.Location),
		zap.Bool("saved_only", onlySaved),
	)
	if len(jobs) == 0 {
		return printRanking(out, jobs, 0)
	}

	scorer, err := newScorer(ctx, d)
	if err != nil {
		return err
	}

	pipeline, err := ranking.New(scorer, d.logger)
	if err != nil {
		return err
	}
	progress := cmd.ErrOrStderr()
	pipeline.WithProgress(func(done, total int) {
		fmt.Fprintf(progress, "\rScoren %d/%d", done, total)
		if done == total {
			fmt.Fprintln(progress)
		}
	})

	report, err := pipeline.Run(ctx, cvText, jobs)
	if report.Unauthorized {
		d.endSession()
	}
	switch {
	case err == nil:
	case apperr.IsKind(err, apperr.KindAggregate):
		fmt.Fprintf(out, "! %s\n\n", apperr.UserMessage(err))
	default:
		return err
	}

	top, _ := cmd.Flags().GetInt("top")
	if err := printRanking(out, jobs, top); err != nil {
		return err
	}

	if report.Partial() {
		fmt.Fprintf(out, "\n%d van %d vacatures konden niet worden beoordeeld.\n", report.Failed, report.Total)
	}
	if report.Unauthorized {
		return errSessionRejected
	}
	return nil
}

// keepSaved drops every record whose id is not in ids.
func keepSaved(records []platform.JobRecord, ids []int) []platform.JobRecord {
	return slices.DeleteFunc(records, func(r platform.JobRecord) bool {
		return !slices.Contains(ids, r.ID)
	})
}

func readCVText(stdin io.Reader, path string) (string, error) {
	path = strings.TrimSpace(path)

	var data []byte
	var err error
	switch path {
	case "":
		return "", apperr.Validation("Geef je CV op met --cv-file (tekstbestand, of - voor stdin).")
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading cv: %w", err)
	}

	return string(data), nil
}

func newScorer(ctx context.Context, d *deps) (ai.Scorer, error) {
	cfg := d.config.Scoring

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", providerPlatform:
		d.logger = logger.ForScorer(d.logger, providerPlatform, "")
		return d.client, nil
	case providerGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  geminiAPIKeyEnv,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set scoring.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		genLogger := logger.ForScorer(d.logger, providerGemini, cfg.Gemini.Model).With(
			zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
		)

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
		if err != nil {
			return nil, err
		}

		d.logger = logger.ForScorer(d.logger, providerGemini, generator.Model())
		return gemini.NewScorer(generator, cfg.Gemini.MaxLogLength, d.logger), nil
	default:
		return nil, fmt.Errorf("unsupported scoring provider: %s", cfg.Provider)
	}
}

func printRanking(out io.Writer, jobs []*ranking.Job, top int) error {
	if len(jobs) == 0 {
		fmt.Fprintln(out, "Geen vacatures gevonden.")
		return nil
	}
	if top > 0 && top < len(jobs) {
		jobs = jobs[:top]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSCORE\tTITEL\tBEDRIJF\tLOCATIE\tTOELICHTING")
	for i, job := range jobs {
		score := "-"
		if value, ok := job.Score(); ok {
			score = fmt.Sprintf("%d", value)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			score,
			utils.TruncateForLog(job.Title, 40),
			utils.TruncateForLog(job.CompanyName(), 24),
			job.Location,
			utils.TruncateForLog(job.Explanation(), 80),
		)
	}

	return w.Flush()
}
