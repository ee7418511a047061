package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/yieldvault/ledger/infra"
	"github.com/yieldvault/ledger/infra/initializer"
	"github.com/yieldvault/ledger/pkg/app"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain/plan"
	"github.com/yieldvault/ledger/pkg/ledger"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Ledger maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "environment file to load")
	root.PersistentFlags().String("plans", "", "TOML plan catalog (defaults to PLANS_FILE or the built-in tiers)")

	root.AddCommand(newPlansCmd(), newProjectCmd(), newMigrateCmd(), newAccrueCmd())
	return root
}

func catalogFrom(cmd *cobra.Command) (*plan.Catalog, error) {
	path, _ := cmd.Flags().GetString("plans")
	if path == "" {
		return plan.DefaultCatalog(), nil
	}
	return plan.LoadFile(path)
}

func loadConfig(cmd *cobra.Command) (*config.App, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(envFile)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func render(headers []string, rows ...[]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the investment tiers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := catalogFrom(cmd)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(catalog.Plans()))
			for _, p := range catalog.Plans() {
				rows = append(rows, []string{
					p.ID, p.Name, money(p.MinDeposit), money(p.MaxDeposit),
					strconv.FormatFloat(p.DailyReturnPercent, 'f', -1, 64) + "%",
					strconv.Itoa(p.DurationDays),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(
				[]string{"ID", "NAME", "MIN", "MAX", "DAILY", "DAYS"}, rows...))
			return nil
		},
	}
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project PRINCIPAL",
		Short: "Project the payout of an investment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid principal %q: %w", args[0], err)
			}
			catalog, err := catalogFrom(cmd)
			if err != nil {
				return err
			}
			planID, _ := cmd.Flags().GetString("plan")
			compounding, _ := cmd.Flags().GetBool("compounding")

			var p plan.Plan
			if planID == "" {
				p, err = catalog.PlanFor(principal)
			} else {
				p, err = catalog.ByID(planID)
			}
			if err != nil {
				return err
			}
			proj, err := ledger.ProjectReturn(principal, p, compounding, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(
				[]string{"PLAN", "PRINCIPAL", "DAILY PROFIT", "TOTAL PROFIT", "PAYOUT", "ROI", "MATURES"},
				[]string{
					proj.PlanID, money(proj.Principal), money(proj.DailyProfit), money(proj.TotalProfit),
					money(proj.TotalPayout), strconv.FormatFloat(proj.ROIPercent, 'f', 2, 64) + "%",
					proj.MaturityDate.Format(time.DateOnly),
				}))
			return nil
		},
	}
	cmd.Flags().String("plan", "", "plan ID (picked from the principal when empty)")
	cmd.Flags().Bool("compounding", false, "compound the daily return")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert PostgreSQL schema migrations",
	}
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, infra.MigrateUp)
		},
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the last migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, infra.MigrateDown)
		},
	}
	cmd.AddCommand(up, down)
	return cmd
}

func withDB(cmd *cobra.Command, fn func(*gorm.DB) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := fn(db); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func newAccrueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accrue",
		Short: "Run one accrual tick over every active contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			deps, cleanup, err := initializer.InitializeDependencies(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := app.New(deps, cfg).Clock.Tick(cmd.Context(), time.Now().UTC())
			fmt.Fprintln(cmd.OutOrStdout(), render(
				[]string{"CONTRACTS", "ACCRUED", "MATURED", "SKIPPED", "FAILED", "PROFIT"},
				[]string{
					strconv.Itoa(res.Contracts), strconv.Itoa(res.Accrued), strconv.Itoa(res.Matured),
					strconv.Itoa(res.Skipped), strconv.Itoa(res.Failed), res.Profit.StringFixed(8),
				}))
			return err
		},
	}
}
