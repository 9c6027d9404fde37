package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/execbot/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the decision journal",
	Long: `Query and display journal records from the SQLite database.

Subcommands:
  entry  - Show one entry by ID
  today  - Report today's entries, management actions and equity
  day    - Report a specific day

Examples:
  execbot journal entry 01J9Z4M8Q6W0D5K3H2F1E0C9B8
  execbot journal today
  execbot journal day 2025-03-10`,
}

var journalEntryCmd = &cobra.Command{
	Use:   "entry <id>",
	Short: "Show one journaled entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEntry,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Report today's activity",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "Report activity on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath string
	journalTZ     string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalEntryCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./execbot.db", "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalTZ, "tz", "UTC", "time zone that defines the trading day")
}

func runJournalEntry(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetEntry(args[0])
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatEntryOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(journalTZ)
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}
	return printDay(cmd, time.Now().In(loc))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(journalTZ)
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}
	day, err := time.ParseInLocation("2006-01-02", args[0], loc)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	return printDay(cmd, day)
}

func printDay(cmd *cobra.Command, day time.Time) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	report, err := j.Day(day)
	if err != nil {
		return fmt.Errorf("query day: %w", err)
	}
	out, err := journal.FormatDayOrg(report)
	if err != nil {
		return fmt.Errorf("format report: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
