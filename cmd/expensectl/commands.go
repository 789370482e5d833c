package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/intake"
)

var (
	errInvalidExpense  = errors.New("invalid expense")
	errFeedUnavailable = errors.New("change feed is not configured: set AMQP_URL")
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func newAddCmd(r *runner) *cobra.Command {
	var form intake.Form
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Example: `  expensectl add --amount 20 --category Food --description Lunch
  expensectl add -a 12,50 -c Transportation -d 2024-01-02 -m "Bus ticket"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := r.App(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("date") {
				form.Date = app.Service.DefaultForm().Date
			}

			e, err := app.Service.CreateExpense(ctx, form)
			if fields, ok := intake.FieldErrors(err); ok {
				printFieldErrors(cmd.ErrOrStderr(), fields)
				return errInvalidExpense
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s on %s (%s)\n",
				e.ID, core.FormatAmount(app.Config.Currency, e.Amount), e.Category, e.Date, e.Description)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&form.Amount, "amount", "a", "", "amount, dot or comma decimal separator")
	flags.StringVarP(&form.Category, "category", "c", "", "category, e.g. "+strings.Join(core.DefaultCategories[:3], ", "))
	flags.StringVarP(&form.Date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	flags.StringVarP(&form.Description, "description", "m", "", "what the money was spent on")
	return cmd
}

func printFieldErrors(w io.Writer, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}

func newListCmd(r *runner) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, optionally of one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.App(cmd.Context())
			if err != nil {
				return err
			}
			items, total := app.Service.List(category)
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No expenses.")
			} else {
				tw := newTable(out)
				fmt.Fprintln(tw, "DATE\tCATEGORY\tAMOUNT\tDESCRIPTION\tID")
				for _, e := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Date, e.Category, e.Amount, e.Description, e.ID)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Total: %s\n", core.FormatAmount(app.Config.Currency, total))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", core.AllCategories, "show only this category")
	return cmd
}

func newRemoveCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove an expense by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.App(cmd.Context())
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			removed, err := app.Service.DeleteExpense(cmd.Context(), id)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No expense with id %s\n", id)
			}
			return nil
		},
	}
}

func newSummaryCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the total and the amount per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.App(cmd.Context())
			if err != nil {
				return err
			}
			sum := app.Service.Summary()
			currency := app.Config.Currency
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %s across %d expenses\n", core.FormatAmount(currency, sum.Total), sum.Count)
			if len(sum.ByCategory) == 0 {
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "CATEGORY\tAMOUNT")
			for _, row := range sum.ByCategory {
				fmt.Fprintf(tw, "%s\t%s\n", row.Name, core.FormatAmount(currency, row.Amount))
			}
			return tw.Flush()
		},
	}
}

func newCategoriesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories available for filtering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.App(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range app.Service.Summary().Categories {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func newWatchCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print change notifications from the AMQP change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := r.App(ctx)
			if err != nil {
				return err
			}
			client := app.AMQPClient()
			if client == nil {
				return errFeedUnavailable
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching exchange %s (%s), press Ctrl+C to stop\n",
				app.Config.AMQPExchange, app.Config.AMQPRoutingKey)
			err = client.ConsumeChanges(ctx, func(m *amqp.ChangeMessage) error {
				return printChange(out, m)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printChange(w io.Writer, m *amqp.ChangeMessage) error {
	_, err := fmt.Fprintf(w, "%s  %-7s  %s  revision %d\n",
		m.Timestamp.Local().Format(time.DateTime), m.Kind, m.ID, m.Revision)
	return err
}
