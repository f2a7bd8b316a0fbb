package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskwire/taskwire/internal/model"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage events",
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your events, latest start date first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		var events []model.Event
		if page > 0 || limit > 0 {
			if page <= 0 {
				page = 1
			}
			result, err := c.ListEventsPage(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			events = result.Data
			defer fmt.Printf("\nPage %d of %d\n", result.CurrentPage, result.TotalPages)
		} else {
			var err error
			events, err = c.ListEvents(cmd.Context())
			if err != nil {
				return err
			}
		}

		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %s - %s", e.Title,
				e.StartDate.Format("2006-01-02 15:04"),
				e.EndDate.Format("2006-01-02 15:04"))
			if e.Recurrence != "" && e.Recurrence != "none" {
				line += fmt.Sprintf("  (repeats %s)", e.Recurrence)
			}
			fmt.Printf("%s  %s\n", line, idStyle.Render(e.ID))
		}
		return nil
	},
}

var eventAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create an event",
	Long: `Create an event with a title, start, and end.

Dates accept natural language as well as YYYY-MM-DD:
  tw event add "Standup" --start "tomorrow 9am" --end "tomorrow 9:30am" --recur daily`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		if start == "" || end == "" {
			return fmt.Errorf("start and end dates are required (use --start and --end)")
		}
		startDate, err := parseDate(start)
		if err != nil {
			return fmt.Errorf("could not parse start date %q: %w", start, err)
		}
		endDate, err := parseDate(end)
		if err != nil {
			return fmt.Errorf("could not parse end date %q: %w", end, err)
		}
		desc, _ := cmd.Flags().GetString("desc")
		recur, _ := cmd.Flags().GetString("recur")

		event, err := c.CreateEvent(cmd.Context(), model.CreateEventInput{
			Title:       args[0],
			Description: desc,
			StartDate:   startDate.Format(time.RFC3339),
			EndDate:     endDate.Format(time.RFC3339),
			Recurrence:  recur,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created event %s (%s - %s)\n", event.ID,
			event.StartDate.Format("2006-01-02 15:04"),
			event.EndDate.Format("2006-01-02 15:04"))
		return nil
	},
}

var eventRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := c.DeleteEvent(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Event deleted")
		return nil
	},
}

func init() {
	eventListCmd.Flags().Int("page", 0, "page number")
	eventListCmd.Flags().Int("limit", 0, "records per page")
	eventAddCmd.Flags().String("start", "", "start date (natural language or YYYY-MM-DD)")
	eventAddCmd.Flags().String("end", "", "end date (natural language or YYYY-MM-DD)")
	eventAddCmd.Flags().String("desc", "", "description")
	eventAddCmd.Flags().String("recur", "none", "recurrence: none, daily, weekly, or monthly")

	eventCmd.AddCommand(eventListCmd, eventAddCmd, eventRmCmd)
	rootCmd.AddCommand(eventCmd)
}
