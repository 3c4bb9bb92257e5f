package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobtrack/jobtrack/internal/config"
	"github.com/jobtrack/jobtrack/internal/storage"
)

// --- migrate ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Inspect or roll back schema migrations",
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		applied, err := store.AppliedMigrations()
		if err != nil {
			return err
		}
		for _, m := range applied {
			fmt.Printf("  %s %3d  %-40s  %s\n",
				colorize(colorGreen, "applied"), m.Version, m.Description, m.AppliedAt)
		}

		// Open runs pending migrations, so this list is empty unless a
		// migration just failed and was rolled back.
		pending, err := store.PendingMigrations()
		if err != nil {
			return err
		}
		for _, m := range pending {
			fmt.Printf("  %s %3d  %s\n", colorize(colorYellow, "pending"), m.Version, m.Description)
		}

		if len(applied) == 0 && len(pending) == 0 {
			fmt.Println("No migrations found.")
		}
		return nil
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback <version>",
	Short: "Revert a single migration by version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		if err := store.Rollback(version); err != nil {
			return err
		}

		printSuccess("Rolled back migration %d", version)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateRollbackCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- applications ---

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List active applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/applications")
		if err != nil {
			return err
		}

		var apps []struct {
			ID            int64  `json:"id"`
			CompanyName   string `json:"company_name"`
			PositionTitle string `json:"position_title"`
			Status        string `json:"status"`
			AppliedDate   string `json:"application_date"`
		}
		if err := decodeJSON(resp, &apps); err != nil {
			return err
		}

		if len(apps) == 0 {
			fmt.Println("No active applications.")
			return nil
		}

		for _, a := range apps {
			fmt.Printf("%s  %-12s  %s at %s\n",
				colorize(colorCyan, fmt.Sprintf("#%d", a.ID)),
				a.Status, a.PositionTitle, a.CompanyName)
		}
		return nil
	},
}

// --- follow-ups ---

var followUpsCmd = &cobra.Command{
	Use:   "follow-ups",
	Short: "List events with follow-ups due soon",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/applications/follow-ups?days=%d", days))
		if err != nil {
			return err
		}

		var events []struct {
			Title         string `json:"title"`
			FollowUpDate  string `json:"follow_up_date"`
			PositionTitle string `json:"position_title"`
			CompanyName   string `json:"company_name"`
			NextSteps     string `json:"next_steps"`
		}
		if err := decodeJSON(resp, &events); err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Printf("Nothing due in the next %d days.\n", days)
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %s (%s at %s)\n",
				colorize(colorBold, e.FollowUpDate), e.Title, e.PositionTitle, e.CompanyName)
			if e.NextSteps != "" {
				fmt.Printf("    %s\n", e.NextSteps)
			}
		}
		return nil
	},
}

func init() {
	followUpsCmd.Flags().Int("days", 7, "look-ahead window in days")
}
