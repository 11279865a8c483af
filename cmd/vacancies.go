package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spigell/peanuts-cli/internal/utils"
)

var vacanciesCmd = &cobra.Command{
	Use:   "vacancies",
	Short: "List public vacancies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		return d.fail(listVacancies(cmd, d))
	},
}

func init() {
	rootCmd.AddCommand(vacanciesCmd)

	vacanciesCmd.Flags().StringP("search", "s", "", "search text")
	vacanciesCmd.Flags().StringP("location", "l", "", "location")
}

func listVacancies(cmd *cobra.Command, d *deps) error {
	search, _ := cmd.Flags().GetString("search")
	location, _ := cmd.Flags().GetString("location")

	vacancies, err := d.client.ListVacancies(cmd.Context(), search, location)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if vacancies.Len() == 0 {
		fmt.Fprintln(out, "Geen vacatures gevonden.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITEL\tLOCATIE\tUREN\tSALARIS\tVRAGEN")
	for _, v := range vacancies.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			v.ID, utils.TruncateForLog(v.Title, 40), v.Location, v.HoursPerWeek, v.SalaryRange, len(v.IntakeQuestions),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nSolliciteren: %s apply <id>\n", app)
	return nil
}
