package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var saveCmd = &cobra.Command{
	Use:   "save <job-id>",
	Short: "Bookmark a job, or remove the bookmark when it is already saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		jobID, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || jobID <= 0 {
			return fmt.Errorf("invalid job id %q", args[0])
		}

		saved, err := d.saved.Toggle(jobID)
		if err != nil {
			return err
		}
		d.logger.Debug("saved jobs updated", zap.Int("job_id", jobID), zap.Bool("saved", saved), zap.String("file", d.saved.Path()))

		if saved {
			fmt.Fprintf(cmd.OutOrStdout(), "Vacature %d opgeslagen. Alleen opgeslagen vacatures scoren: %s match --saved\n", jobID, app)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Vacature %d verwijderd uit opgeslagen.\n", jobID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
}
