package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"abr-search/models"
	"abr-search/services"
	"abr-search/utils"
)

var (
	batchState    string
	batchPostcode string
)

var batchCmd = &cobra.Command{
	Use:   "batch <terms-file>",
	Short: "Run a search for every term in a file, one per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := models.ParseState(batchState)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %q", args[0])
		}
		terms, err := services.ReadTerms(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		if len(terms) == 0 {
			return eris.Errorf("no search terms in %s", args[0])
		}

		e, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		logger.Info("Running %d searches (concurrency %d, %dms apart)", len(terms), cfg.MaxConcurrency, cfg.RateLimitMs)
		pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs)
		outcomes := services.RunBatch(cmd.Context(), e.Pipeline, pool, terms, state, batchPostcode)

		out := cmd.OutOrStdout()
		failed := 0
		for _, o := range outcomes {
			if o.Err != nil {
				failed++
				fmt.Fprintf(out, "FAIL  %-30s %v\n", o.Term, o.Err)
				continue
			}
			fmt.Fprintf(out, "OK    %-30s %6d records  %s\n", o.Term, o.Result.RecordCount, o.Result.CSVFile)
		}
		if failed > 0 {
			return eris.Errorf("%d of %d searches failed", failed, len(outcomes))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchState, "state", "", "only include this state")
	batchCmd.Flags().StringVar(&batchPostcode, "postcode", "", "only include this postcode")
	rootCmd.AddCommand(batchCmd)
}
