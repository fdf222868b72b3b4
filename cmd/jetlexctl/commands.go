package main

import (
	"bufio"
	"context"
	"fmt"
	"jetlex_app_go/config"
	"jetlex_app_go/db"
	"jetlex_app_go/logger"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"jetlex_app_go/services/jobs"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	ok   = color.New(color.FgGreen).SprintFunc()
	warn = color.New(color.FgYellow).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

// connect loads configuration and opens the database, running migrations
func connect() (*config.Config, error) {
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.LogLevel)

	if err := db.Initialize(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.MigrateAll(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := connect(); err != nil {
				return err
			}
			defer db.Close()

			fmt.Println(ok("✓"), "Migrations applied")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator account. Name and email may be given as flags;
anything missing is prompted for. The password is always read from the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := connect(); err != nil {
				return err
			}
			defer db.Close()

			reader := bufio.NewReader(os.Stdin)
			fmt.Println(bold("=== Create Administrator ==="))
			fmt.Println()

			if name == "" {
				fmt.Print("Name: ")
				line, _ := reader.ReadString('\n')
				name = strings.TrimSpace(line)
			}
			if email == "" {
				fmt.Print("Email: ")
				line, _ := reader.ReadString('\n')
				email = strings.TrimSpace(line)
			}

			// Get password securely
			fmt.Print("Password: ")
			passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			// The tool acts with administrator authority, so neither the invite PIN nor a session is needed
			operator := &models.User{Role: models.RoleAdmin, IsActive: true}
			user, err := services.RegisterUser(db.DB, services.RegisterInput{
				Name:     name,
				Email:    email,
				Password: string(passwordBytes),
				Role:     models.RoleAdmin,
			}, operator, "")
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(ok("✓"), "Administrator created")
			fmt.Printf("  ID:    %s\n", user.ID)
			fmt.Printf("  Name:  %s\n", user.Name)
			fmt.Printf("  Email: %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	return cmd
}

func seedMatrixCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "seed-matrix",
		Short: "Load the decision escalation matrix from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if path == "" {
				path = cfg.DecisionMatrixPath
			}
			n, err := services.SeedDecisionMatrixFromFile(db.DB, path, !force)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Println(warn("!"), "Matrix already present, nothing loaded (use --force to replace it)")
				return nil
			}
			fmt.Println(ok("✓"), fmt.Sprintf("Loaded %d rules from %s", n, path))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "matrix file (defaults to DECISION_MATRIX_PATH)")
	cmd.Flags().BoolVar(&force, "force", false, "replace the active matrix even if one exists")
	return cmd
}

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run the regulatory watch once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			result, err := jobs.RunRegulatoryWatch(ctx, db.DB, cfg)
			if err != nil {
				return err
			}
			fmt.Println(ok("✓"), fmt.Sprintf("Fetched %d items: %d new, %d known, %d failed",
				result.Fetched, result.Created, result.Skipped, result.Failed))
			return nil
		},
	}
}

func newsletterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "newsletter",
		Short: "Generate this week's newsletter and send it to every active subscriber",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := jobs.RunWeeklyNewsletter(cmd.Context(), db.DB, cfg, services.NewResendMailer(cfg), time.Now()); err != nil {
				return err
			}
			fmt.Println(ok("✓"), "Newsletter sent")
			return nil
		},
	}
}

func phaseAlertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phase-alerts",
		Short: "Refresh phase alerts and email the delayed-phase digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := jobs.RefreshPhaseAlerts(cmd.Context(), db.DB, cfg, services.NewResendMailer(cfg), time.Now())
			if err != nil {
				return err
			}
			fmt.Println(ok("✓"), fmt.Sprintf("%d new alerts, %d digests sent", result.Raised, result.Recipients))
			if result.Failed > 0 {
				fmt.Println(warn("!"), fmt.Sprintf("%d digests failed", result.Failed))
			}
			return nil
		},
	}
}
