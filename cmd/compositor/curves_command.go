package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/effects"
)

func newCurvesCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:         "curves",
		Short:       "Print sampled values of the transition curves",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			headers := []string{"x"}
			aligns := []columnAlignment{alignRight}
			for _, c := range effects.Curves {
				headers = append(headers, c.String())
				aligns = append(aligns, alignRight)
			}
			rows := make([][]string, 0, steps+1)
			for i := 0; i <= steps; i++ {
				x := float64(i) / float64(steps)
				row := []string{fmt.Sprintf("%.3f", x)}
				for _, c := range effects.Curves {
					row = append(row, fmt.Sprintf("%.3f", effects.Evaluate(c, x)))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 10, "Number of intervals to sample")
	return cmd
}
