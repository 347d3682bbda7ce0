// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/service"
)

// credentials are the --email/--password flags shared by commands that act
// on behalf of a directory account.
type credentials struct {
	email    string
	password string
}

func (c *credentials) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&c.email, "email", "", "email of the acting account")
	cmd.PersistentFlags().StringVar(&c.password, "password", "", "password of the acting account")
	_ = cmd.MarkPersistentFlagRequired("email")
	_ = cmd.MarkPersistentFlagRequired("password")
}

// withIdentity opens the app, authenticates the credentials and runs fn as
// the resulting identity.
func (c *credentials) withIdentity(ctx context.Context, fn func(*app, model.Identity) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	id, err := a.svc.Users.Authenticate(ctx, c.email, c.password)
	if err != nil {
		return err
	}
	return fn(a, id)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", a.cfg.DBPath)
			return nil
		},
	}
}

func newUsersCmd() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the user directory",
	}
	creds.register(cmd)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return creds.withIdentity(cmd.Context(), func(a *app, id model.Identity) error {
					users, err := a.svc.Users.ListUsers(cmd.Context(), id)
					if err != nil {
						return err
					}
					return printUsers(cmd.OutOrStdout(), users)
				})
			},
		},
		&cobra.Command{
			Use:   "add <email> <password> <role>",
			Short: "Create a user",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return creds.withIdentity(cmd.Context(), func(a *app, id model.Identity) error {
					u, err := a.svc.Users.CreateUser(cmd.Context(), id, args[0], args[1], model.Role(args[2]))
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Email, u.Role)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <email>",
			Short: "Delete a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return creds.withIdentity(cmd.Context(), func(a *app, id model.Identity) error {
					if err := a.svc.Users.DeleteUser(cmd.Context(), id, args[0]); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "passwd <email> <new-password>",
			Short: "Set a user's password",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return creds.withIdentity(cmd.Context(), func(a *app, id model.Identity) error {
					if err := a.svc.Users.UpdatePassword(cmd.Context(), id, args[0], args[1]); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func newTasksCmd() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect tasks",
	}
	creds.register(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the tasks visible to the acting account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return creds.withIdentity(cmd.Context(), func(a *app, id model.Identity) error {
				items, err := a.svc.Tasks.ListTasks(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printTasks(cmd.OutOrStdout(), items)
			})
		},
	})
	return cmd
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the event log",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			events, err := a.svc.Events.ListEvents(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printEvents(cmd.OutOrStdout(), events)
		},
	}
	list.Flags().IntVar(&limit, "limit", service.DefaultEventLimit, "maximum number of events")

	var days int
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete events older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			retention := a.cfg.EventRetention()
			if cmd.Flags().Changed("days") {
				retention = time.Duration(days) * 24 * time.Hour
			}
			n, err := a.svc.Events.PurgeEvents(cmd.Context(), retention)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "purged %d events\n", n)
			return nil
		},
	}
	purge.Flags().IntVar(&days, "days", 0, "retention in days (defaults to PMT_EVENT_RETENTION_DAYS)")

	cmd.AddCommand(list, purge)
	return cmd
}

func printUsers(w io.Writer, users []model.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EMAIL\tROLE\tCREATED")
	for _, u := range users {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Email, u.Role, u.CreatedAt.Format(model.DateLayout))
	}
	return tw.Flush()
}

func printTasks(w io.Writer, items []model.TaskSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPROJECT\tASSIGNEE\tSTATUS\tEXPECTED\tSPENT")
	for _, t := range items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
			t.ID, t.ProjectName, t.AssignedTo, t.Status, t.ExpectedHours, t.TotalHoursSpent)
	}
	return tw.Flush()
}

func printEvents(w io.Writer, events []model.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tLEVEL\tCATEGORY\tMESSAGE")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Level, e.Category, e.Message)
	}
	return tw.Flush()
}
