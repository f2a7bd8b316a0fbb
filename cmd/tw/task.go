package main

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/taskwire/taskwire/internal/client"
	"github.com/taskwire/taskwire/internal/model"
)

// parseDate accepts natural language ("tomorrow 5pm", "next friday") as
// well as RFC3339 and YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	if r, err := w.Parse(s, time.Now()); err == nil && r != nil {
		return r.Time, nil
	}
	return model.ParseDate(s)
}

func newAPIClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("no token configured (run 'tw token' on the server or set TASKWIRE_TOKEN)")
	}
	return client.New(cfg.ServerURL, cfg.Token), nil
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your tasks, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		var tasks []model.Task
		if page > 0 || limit > 0 {
			if page <= 0 {
				page = 1
			}
			result, err := c.ListTasksPage(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			tasks = result.Data
			defer fmt.Printf("\nPage %d of %d\n", result.CurrentPage, result.TotalPages)
		} else {
			var err error
			tasks, err = c.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, t := range tasks {
			box := "[ ]"
			if t.Completed {
				box = "[x]"
			}
			fmt.Printf("%s %s  due %s  %s\n", box, t.Title, t.DueDate.Format("2006-01-02"), idStyle.Render(t.ID))
		}
		return nil
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a task with a title and a due date.

The due date accepts natural language as well as YYYY-MM-DD:
  tw task add "Pay rent" --due "tomorrow 5pm"
  tw task add "File taxes" --due 2026-04-15 --desc "Federal and state"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		due, _ := cmd.Flags().GetString("due")
		if due == "" {
			return fmt.Errorf("a due date is required (use --due)")
		}
		dueDate, err := parseDate(due)
		if err != nil {
			return fmt.Errorf("could not parse due date %q: %w", due, err)
		}
		desc, _ := cmd.Flags().GetString("desc")

		task, err := c.CreateTask(cmd.Context(), model.CreateTaskInput{
			Title:       args[0],
			Description: desc,
			DueDate:     dueDate.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created task %s (due %s)\n", task.ID, task.DueDate.Format("2006-01-02 15:04"))
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		completed := true
		task, err := c.UpdateTask(cmd.Context(), args[0], model.UpdateTaskInput{Completed: &completed})
		if err != nil {
			return err
		}
		fmt.Printf("Completed: %s\n", task.Title)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := c.DeleteTask(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Task deleted")
		return nil
	},
}

func init() {
	taskListCmd.Flags().Int("page", 0, "page number")
	taskListCmd.Flags().Int("limit", 0, "records per page")
	taskAddCmd.Flags().String("due", "", "due date (natural language or YYYY-MM-DD)")
	taskAddCmd.Flags().String("desc", "", "description")

	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskDoneCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
