package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"abr-search/services"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.xml> <output.csv>",
	Short: "Convert a saved ABR search payload to CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := services.ConvertFile(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully converted %d records to %s\n", n, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
