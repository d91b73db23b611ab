package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"abr-search/models"
	"abr-search/services"
)

var (
	searchState      string
	searchPostcode   string
	searchMaxResults int
	searchNoSummary  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Run one registry name search and export the results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := models.NewSearchQuery(args[0], searchState, searchPostcode, searchMaxResults)
		if err != nil {
			return err
		}

		e, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Pipeline.Run(cmd.Context(), q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Processed %d records\n", res.RecordCount)
		fmt.Fprintf(out, "  XML: %s\n", filepath.Join(e.Store.Dir(), res.XMLFile))
		fmt.Fprintf(out, "  CSV: %s\n", filepath.Join(e.Store.Dir(), res.CSVFile))

		if !searchNoSummary {
			rows := res.Rows
			if e.Postgres != nil {
				dbRows, err := e.Postgres.FetchRows(cmd.Context(), res.ID)
				if err != nil {
					logger.Warn("Failed to fetch rows from PostgreSQL for the summary: %v", err)
				} else if len(dbRows) == res.RecordCount {
					rows = dbRows
				}
			}
			insights := services.NewInsightService(logger)
			insights.Print(out, insights.Generate(rows))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchState, "state", "", "only include this state (NSW, SA, ACT, VIC, WA, NT, QLD, TAS)")
	searchCmd.Flags().StringVar(&searchPostcode, "postcode", "", "only include this postcode")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "maximum results to request (default from ABR_MAX_RESULTS)")
	searchCmd.Flags().BoolVar(&searchNoSummary, "no-summary", false, "skip the summary report")
	rootCmd.AddCommand(searchCmd)
}
