package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/coaching-sessions/internal/app"
	"github.com/BruksfildServices01/coaching-sessions/internal/config"
	"github.com/BruksfildServices01/coaching-sessions/internal/logging"
)

type opener func() (*app.App, error)

func openApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger)
}

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "sessionctl",
		Short:        "Operate the coaching session engine from the terminal",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(open),
		newAdmissionCmd(open),
		newRemindersCmd(open),
	)

	return rootCmd
}

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Migrate(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return err
		},
	}
}

func newAdmissionCmd(open opener) *cobra.Command {
	var (
		sessionID uint
		userID    uint
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "admission",
		Short: "Show whether a participant may join a session now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Admission().Execute(cmd.Context(), sessionID, userID)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"session %d (%s): %s\ncan join: %t\n%s\n",
				view.SessionID, view.SessionStatus, view.State, view.CanJoin, view.Message)
			return err
		},
	}

	cmd.Flags().UintVar(&sessionID, "session", 0, "session id")
	cmd.Flags().UintVar(&userID, "user", 0, "participant user id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newRemindersCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Inspect session reminders",
	}

	var (
		limit  int
		asJSON bool
	)

	due := &cobra.Command{
		Use:   "due",
		Short: "List reminders that should be dispatched now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			rs := a.Reminders()
			list, err := rs.DueReminders(cmd.Context(), rs.Now(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "due reminders: %d\n", len(list)); err != nil {
				return err
			}
			for _, d := range list {
				if _, err := fmt.Fprintf(out, "#%d session %d user %d via %s (due %s)\n",
					d.Reminder.ID, d.Reminder.SessionID, d.Reminder.UserID,
					d.Reminder.Channel, d.DueAt.Format("2006-01-02 15:04")); err != nil {
					return err
				}
			}
			return nil
		},
	}
	due.Flags().IntVar(&limit, "limit", 0, "maximum reminders to list (0 = all)")
	due.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.AddCommand(due)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
