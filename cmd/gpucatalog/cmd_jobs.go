package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/gpucatalog/app/controllers"
	"github.com/shashiranjanraj/gpucatalog/config"
	"github.com/shashiranjanraj/gpucatalog/internal/bootstrap"
)

var (
	ingestFile     string
	ingestReingest bool
	scheduleNow    bool
)

// gpucatalog ingest <url...>
var ingestCmd = &cobra.Command{
	Use:   "ingest [url...]",
	Short: "Scrape and store GPU listings",
	Long:  "Submits the given URLs (and any listed one per line in --file) as one extraction job and stores every new product.",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if ingestFile != "" {
			f, err := os.Open(ingestFile)
			if err != nil {
				return err
			}
			defer f.Close()
			fromFile, err := readURLs(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", ingestFile, err)
			}
			urls = append(urls, fromFile...)
		}
		if len(urls) == 0 {
			return errors.New("no URLs given: pass them as arguments or with --file")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, config.IngestTimeout())
		defer cancel()

		c, err := bootstrap.New(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		ingest := c.Ingestor.Ingest
		if ingestReingest {
			ingest = c.Ingestor.Reingest
		}
		rep := ingest(ctx, urls)
		if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
		if !rep.Success {
			return fmt.Errorf("ingest failed (status %d): %s", controllers.IngestStatus(rep), rep.Message)
		}
		return nil
	},
}

// gpucatalog refresh:prices
var refreshPricesCmd = &cobra.Command{
	Use:   "refresh:prices",
	Short: "Re-scrape price and stock for every stored product",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := bootstrap.New(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		rep, err := c.Refresher.RefreshAll(ctx)
		if perr := printJSON(cmd.OutOrStdout(), rep); perr != nil {
			return perr
		}
		return err
	},
}

// gpucatalog schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	Long:  "Runs the nightly price refresh on REFRESH_SCHEDULE until interrupted. An interrupted refresh resumes from its checkpoint on the next run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := bootstrap.New(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		s, err := c.Scheduler()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TASK\tSCHEDULE")
		for _, t := range s.List() {
			fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Spec)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if scheduleNow {
			rep, err := c.Refresher.RefreshAll(ctx)
			if err != nil {
				return err
			}
			c.Log.Info("schedule: initial price refresh done", "run_id", rep.RunID, "updated", rep.Updated, "total", rep.Total)
		}
		s.Start(ctx)
		return nil
	},
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "File with one URL per line")
	ingestCmd.Flags().BoolVar(&ingestReingest, "reingest", false, "Overwrite products that already exist instead of skipping them")
	scheduleRunCmd.Flags().BoolVar(&scheduleNow, "now", false, "Run the price refresh once before waiting for the schedule")
}
