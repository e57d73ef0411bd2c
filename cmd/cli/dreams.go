package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/service"
)

func newDreamsCmd(st *cliState) *cobra.Command {
	dreamsCmd := &cobra.Command{Use: "dreams", Short: "Dream journal operations"}

	var (
		in      service.DreamInput
		file    string
		private bool
	)
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a dream and show the matches it produced",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &in); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
			}
			if cmd.Flags().Changed("private") {
				public := !private
				in.IsPublic = &public
			}

			var res struct {
				Dream    domain.Dream   `json:"dream"`
				Matches  []domain.Match `json:"matches"`
				Strategy string         `json:"strategy"`
			}
			if err := st.client().do(http.MethodPost, "/api/dreams", in, &res); err != nil {
				return err
			}
			fmt.Fprintf(st.out, "✓ Dream %s stored (%s), %d match(es)\n", res.Dream.ID, res.Strategy, len(res.Matches))
			printMatches(st, res.Matches)
			return nil
		},
	}
	f := submitCmd.Flags()
	f.StringVarP(&file, "file", "f", "", "read the dream from a JSON file")
	f.StringSliceVarP(&in.Keywords, "keywords", "k", nil, "keywords (structured dream)")
	f.StringVarP(&in.FullDescription, "story", "s", "", "full narrative (structured dream)")
	f.StringSliceVar(&in.Places, "places", nil, "places that appeared")
	f.StringSliceVar(&in.Names, "names", nil, "people that appeared")
	f.StringSliceVar(&in.Animals, "animals", nil, "animals that appeared")
	f.StringVar(&in.DreamType, "type", "", "dream type (neutral, good, nightmare, surreal, lucid, prophetic)")
	f.BoolVar(&in.IsRecurring, "recurring", false, "the dream recurs")
	f.StringVar(&in.RecurringFrequency, "frequency", "", "how often it recurs")
	f.StringVar(&in.TimeOfWaking, "woke", "", "time of waking (HH:MM)")
	f.StringVarP(&in.Title, "title", "t", "", "title (simple dream)")
	f.StringVarP(&in.Description, "description", "d", "", "description (simple dream)")
	f.StringSliceVar(&in.Tags, "tags", nil, "tags (simple dream)")
	f.BoolVar(&private, "private", false, "keep the dream out of other users' matching")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your dreams, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var res struct {
				Dreams []domain.Dream `json:"dreams"`
			}
			if err := st.client().do(http.MethodGet, "/api/dreams", nil, &res); err != nil {
				return err
			}
			w := tabwriter.NewWriter(st.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPUBLIC\tSUMMARY")
			for _, d := range res.Dreams {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", d.ID, d.CreatedAt.Format(time.DateTime), d.IsPublic, summary(d))
			}
			return w.Flush()
		},
	}

	dreamsCmd.AddCommand(submitCmd, listCmd)
	return dreamsCmd
}

func newMatchesCmd(st *cliState) *cobra.Command {
	matchesCmd := &cobra.Command{Use: "matches", Short: "Review your matches"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your matches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var res struct {
				Matches []service.MatchView `json:"matches"`
			}
			if err := st.client().do(http.MethodGet, "/api/matches", nil, &res); err != nil {
				return err
			}
			w := tabwriter.NewWriter(st.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCORE\tSTATUS\tWITH\tREASON")
			for _, m := range res.Matches {
				fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\n", m.ID, m.Score, m.Status, m.MatchedWithUsername, m.Reason)
			}
			return w.Flush()
		},
	}

	decide := func(verb string) *cobra.Command {
		return &cobra.Command{
			Use:   verb + " MATCH_ID",
			Short: strings.ToUpper(verb[:1]) + verb[1:] + " a pending match",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var m domain.Match
				if err := st.client().do(http.MethodPost, "/api/matches/"+args[0]+"/"+verb, nil, &m); err != nil {
					return err
				}
				fmt.Fprintf(st.out, "✓ Match %s is now %s\n", m.ID, m.Status)
				return nil
			},
		}
	}

	matchesCmd.AddCommand(listCmd, decide("accept"), decide("reject"))
	return matchesCmd
}

func printMatches(st *cliState, matches []domain.Match) {
	if len(matches) == 0 {
		return
	}
	w := tabwriter.NewWriter(st.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tREASON")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%.1f\t%s\n", m.ID, m.Score, m.Reason)
	}
	_ = w.Flush()
}

func summary(d domain.Dream) string {
	if d.IsStructured() {
		return strings.Join(d.Keywords, ", ")
	}
	return d.Title
}
