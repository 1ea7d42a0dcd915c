package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/storefront/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Storefront web server over a headless CMS",
	Long: `Storefront renders the home, about, collections and product pages from a
Prismic-compatible content API, or from a local sqlite mirror seeded with YAML.

Only PRISMIC_ENDPOINT (and PRISMIC_ACCESS_TOKEN for private repositories) is
required. GIN_MODE defaults to release; set SESSION_SECRET there, otherwise
preview sessions are signed with a built-in secret and a warning is logged.
CONTENT_LOCALES is empty by default, so queries use the repository's master
locale; "*" asks for every language.

Examples:
  server serve
  server seed --file fixtures/storefront.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file read before the environment")
}

func loadConfig() config.AppConfig {
	return config.LoadFile(envFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
