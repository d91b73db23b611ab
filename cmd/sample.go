package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"abr-search/abr"
	"abr-search/models"
)

var sampleCount int

var sampleCmd = &cobra.Command{
	Use:   "sample <term> <output.xml>",
	Short: "Write a synthetic ABR search payload for offline testing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sampleCount < 0 {
			return eris.Errorf("--count must not be negative, got %d", sampleCount)
		}
		doc, err := abr.SampleResponse(args[0], sampleBusinesses(args[0], sampleCount), time.Now())
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], []byte(doc), 0644); err != nil {
			return eris.Wrapf(err, "write %q", args[1])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sample records to %s\n", sampleCount, args[1])
		return nil
	},
}

func sampleBusinesses(term string, n int) []abr.SampleBusiness {
	out := make([]abr.SampleBusiness, n)
	for i := range out {
		st := models.States[i%len(models.States)]
		out[i] = abr.SampleBusiness{
			ABN:      fmt.Sprintf("%011d", 51824753556+int64(i)),
			Name:     fmt.Sprintf("%s Sample %d Pty Ltd", term, i+1),
			State:    string(st),
			Postcode: fmt.Sprintf("%04d", 2000+i),
		}
	}
	return out
}

func init() {
	sampleCmd.Flags().IntVar(&sampleCount, "count", 3, "number of records to generate")
	rootCmd.AddCommand(sampleCmd)
}
