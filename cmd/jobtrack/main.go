package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "jobtrack",
	Short: "Track job applications, resume versions, and recruiter contacts",
	Long: `jobtrack runs a local REST API over a SQLite database for tracking
job applications, resume versions, recruiters, hiring managers, and job
postings. Uploaded files go to S3 when credentials are configured, or to a
local stub otherwise.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the jobtrack version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobtrack version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(applicationsCmd)
	rootCmd.AddCommand(followUpsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
