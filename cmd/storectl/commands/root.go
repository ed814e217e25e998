// Package commands implements storectl's subcommands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	indexURL     string
	bucketURL    string
	secret       string
	principal    string
	httpTimeoutS int
)

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Operator CLI for a coldvault index and its bucket shards",
	Long: `storectl talks to a coldvault index and its registered buckets over
the same wire API buckets and the index use to talk to each other. It
signs its own short-lived operator token from --secret, so it needs no
separate credential store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&indexURL, "index-url", "", "base URL of the index server")
	rootCmd.PersistentFlags().StringVar(&bucketURL, "bucket-url", "", "base URL of a bucket server")
	rootCmd.PersistentFlags().StringVar(&secret, "secret", "", "service-auth signing secret (must match the target's service_auth.secret)")
	rootCmd.PersistentFlags().StringVar(&principal, "principal", "storectl", "principal this CLI identifies itself as")
	rootCmd.PersistentFlags().IntVar(&httpTimeoutS, "timeout", 30, "HTTP request timeout in seconds")

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(versionCmd)
}
