package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/gpucatalog/database/seeders"
	"github.com/shashiranjanraj/gpucatalog/internal/bootstrap"
)

// gpucatalog migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap.New(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		ran, err := c.Migrator().Run(cmd.Context())
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		for _, name := range ran {
			fmt.Println("Migrated:", name)
		}
		return nil
	},
}

// gpucatalog migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap.New(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		rolled, err := c.Migrator().Rollback(cmd.Context())
		if err != nil {
			return err
		}
		if len(rolled) == 0 {
			fmt.Println("Nothing to rollback.")
		}
		for _, name := range rolled {
			fmt.Println("Rolled back:", name)
		}
		return nil
	},
}

// gpucatalog migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap.New(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		rows, err := c.Migrator().Status(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range rows {
			ran, batch := "no", "-"
			if s.Ran {
				ran, batch = "yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
		}
		return w.Flush()
	},
}

// gpucatalog seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap.New(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		ran, err := seeders.RunAll(cmd.Context(), c.DB, c.Catalog, c.Log)
		if err != nil {
			return err
		}
		fmt.Printf("Seeding complete (%d seeders ran)\n", len(ran))
		return nil
	},
}
