package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/matching"
)

func newScoreCmd(st *cliState) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "score A.json B.json",
		Short: "Score two dream files locally without contacting the server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readDream(args[0])
			if err != nil {
				return err
			}
			b, err := readDream(args[1])
			if err != nil {
				return err
			}

			res := matching.Score(a, b)
			if asJSON {
				enc := json.NewEncoder(st.out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					matching.SimilarityResult
					Reason string `json:"reason"`
				}{res, matching.Reason(res)})
			}

			fmt.Fprintf(st.out, "strategy: %s\nscore:    %.1f\nreason:   %s\n\n", res.Strategy, res.Score, matching.Reason(res))
			w := tabwriter.NewWriter(st.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DIMENSION\tPOINTS\tMATCHES")
			for _, dim := range matching.Dimensions(res.Strategy) {
				fmt.Fprintf(w, "%s\t%.1f\t%d\n", dim, res.Breakdown[dim], res.MatchCounts[dim])
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func readDream(path string) (domain.Dream, error) {
	var d domain.Dream
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse %s: %w", path, err)
	}
	d.Keywords = domain.NormalizeKeywords(d.Keywords)
	return d, nil
}
