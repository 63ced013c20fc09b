package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/gpucatalog/config"
	"github.com/shashiranjanraj/gpucatalog/internal/bootstrap"
	"github.com/shashiranjanraj/gpucatalog/internal/kernel"
	"github.com/shashiranjanraj/gpucatalog/internal/server"
)

var serveMigrate bool

// gpucatalog serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := bootstrap.New(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		if serveMigrate {
			if _, err := c.Migrator().Run(ctx); err != nil {
				return err
			}
		}

		h, err := c.Handlers()
		if err != nil {
			return err
		}
		k := kernel.NewHTTP(h, kernel.DefaultOptions(config.RateLimitPerMinute()))
		defer k.Close()

		return server.Run(ctx, server.Config{
			Addr:         ":" + config.AppPort(),
			WriteTimeout: config.IngestTimeout() + 30*time.Second,
		}, k.Handler(), c.Log)
	},
}

// gpucatalog route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range kernel.RouteTable() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Run pending migrations before serving")
}
