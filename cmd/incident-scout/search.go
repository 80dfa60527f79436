// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/meshintel/incident-scout/internal/session"
	"github.com/meshintel/incident-scout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a one-shot incident search",
	Long: `Search pulls documents from the configured sources, extracts a structured
event from each, and prints the events ranked by relevance to the query.
Interrupt with Ctrl-C to stop after the current document; partial results
collected so far are still printed.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text search phrase")
	searchCmd.Flags().String("location", "", "filter by location name")
	searchCmd.Flags().String("type", "", "filter by event type (protest, attack, bombing, ...)")
	searchCmd.Flags().String("from", "", "event date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "event date range end (YYYY-MM-DD)")
	searchCmd.Flags().Float64("min-relevance", 0, "minimum relevance score (default from config)")
	searchCmd.Flags().Int("max-results", 20, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

// queryFromFlags builds and validates the query.
func queryFromFlags(cmd *cobra.Command) (types.Query, error) {
	var q types.Query
	q.Phrase, _ = cmd.Flags().GetString("query")
	q.Location, _ = cmd.Flags().GetString("location")
	q.MinRelevance, _ = cmd.Flags().GetFloat64("min-relevance")
	q.MaxResults, _ = cmd.Flags().GetInt("max-results")

	if et, _ := cmd.Flags().GetString("type"); et != "" {
		candidate := types.EventType(et)
		valid := false
		for _, t := range types.EventTypes {
			if candidate == t {
				valid = true
				break
			}
		}
		if !valid {
			return q, fmt.Errorf("unknown event type %q (valid: %v)", et, types.EventTypes)
		}
		q.EventType = candidate
	}

	var err error
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		if q.DateFrom, err = time.Parse("2006-01-02", from); err != nil {
			return q, fmt.Errorf("invalid --from date: %v", err)
		}
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		if q.DateTo, err = time.Parse("2006-01-02", to); err != nil {
			return q, fmt.Errorf("invalid --to date: %v", err)
		}
	}

	if q.IsEmpty() {
		return q, fmt.Errorf("provide at least one of --query, --location, or --type")
	}
	return q, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr)
	p, err := buildPipeline(loadPipelineConfig(), logger)
	if err != nil {
		return err
	}
	defer p.close()

	sess := session.New(uuid.NewString(), query)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.runner.Run(context.Background(), sess)
	}()

	select {
	case <-ctx.Done():
		logger.Warn("interrupt received, stopping after current document")
		sess.RequestCancel()
		<-done
	case <-done:
	}

	snap := sess.Snapshot()
	if snap.Status == types.StatusError {
		return fmt.Errorf("search failed: %s", snap.Error)
	}

	events := make([]types.Event, len(snap.Events))
	for i, se := range snap.Events {
		events[i] = se.Event
	}
	ranked := p.matcher.Rank(events, query, p.matcher.MinRelevance(query))

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	printEventTable(ranked)
	if snap.Status == types.StatusCancelled {
		fmt.Fprintln(os.Stderr, "search cancelled; results are partial")
	}
	return nil
}

func printEventTable(ranked []types.ScoredEvent) {
	if len(ranked) == 0 {
		fmt.Println("No events matched the query.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tDATE\tTYPE\tLOCATION\tTITLE")
	for _, se := range ranked {
		date := "-"
		if !se.Event.EventDate.IsZero() {
			date = se.Event.EventDate.Format("2006-01-02")
		}
		loc := se.Event.Location.City
		if loc == "" {
			loc = se.Event.Location.Country
		}
		if loc == "" {
			loc = "-"
		}
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\t%s\n", se.RelevanceScore, date, se.Event.EventType, loc, se.Event.Title)
	}
	w.Flush()
}
