package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/storefront/internal/db"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load YAML documents into the local content store",
	Long: `Load documents from a YAML file into the sqlite store used when
CONTENT_SOURCE=local. Existing documents with the same id are replaced.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "fixtures/storefront.yaml", "YAML file with a top-level documents list")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if err := db.Init(cfg.DatabasePath); err != nil {
		return fmt.Errorf("open local store: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	count, err := db.SeedFromFile(ctx, db.NewStore(db.DB), seedFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d documents into %s\n", count, cfg.DatabasePath)
	return nil
}
