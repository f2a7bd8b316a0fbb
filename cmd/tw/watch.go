package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskwire/taskwire/internal/client"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	noticeStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11"))
	doneStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	idStyle     = lipgloss.NewStyle().Faint(true)
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow tasks and events live",
	Long: `Subscribe to the server's broadcast channel and keep a live view of
tasks and events. Changes made by any user appear as they happen,
without polling.

Example usage:
  tw watch                       # Watch everything
  tw watch --filter active       # Only incomplete tasks
  tw watch --filter completed    # Only completed tasks`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Token == "" {
			return fmt.Errorf("no token configured (run 'tw token' on the server or set TASKWIRE_TOKEN)")
		}

		filterName, _ := cmd.Flags().GetString("filter")
		var filter client.Filter
		switch filterName {
		case "all":
			filter = client.FilterAll
		case "active":
			filter = client.FilterActive
		case "completed":
			filter = client.FilterCompleted
		default:
			return fmt.Errorf("unknown filter %q (want all, active, or completed)", filterName)
		}

		c := client.New(cfg.ServerURL, cfg.Token)

		var mu sync.Mutex
		var taskStore *client.TaskStore
		var eventStore *client.EventStore

		render := func(notice string) {
			mu.Lock()
			defer mu.Unlock()

			fmt.Print("\033[2J\033[H") // clear screen
			if notice != "" {
				fmt.Println(noticeStyle.Render(notice))
				fmt.Println()
			}

			fmt.Println(headerStyle.Render("Tasks"))
			tasks := taskStore.Filtered()
			if len(tasks) == 0 {
				fmt.Println("  (none)")
			}
			for _, t := range tasks {
				box := "[ ]"
				line := fmt.Sprintf("%s %s  due %s", box, t.Title, t.DueDate.Format("2006-01-02"))
				if t.Completed {
					box = "[x]"
					line = doneStyle.Render(fmt.Sprintf("%s %s", box, t.Title))
				}
				fmt.Printf("  %s %s\n", line, idStyle.Render(t.ID))
			}

			fmt.Println()
			fmt.Println(headerStyle.Render("Events"))
			events := eventStore.Records()
			if len(events) == 0 {
				fmt.Println("  (none)")
			}
			for _, e := range events {
				fmt.Printf("  %s  %s - %s %s\n",
					e.Title,
					e.StartDate.Format("2006-01-02 15:04"),
					e.EndDate.Format("2006-01-02 15:04"),
					idStyle.Render(e.ID))
			}

			fmt.Println()
			fmt.Println(idStyle.Render("Press Ctrl+C to stop..."))
		}

		notify := func(msg string) { render(msg) }
		taskStore = client.NewTaskStore(c, cfg.PageSize, notify)
		eventStore = client.NewEventStore(c, cfg.PageSize, notify)

		ctx := cmd.Context()
		if err := taskStore.SetFilter(ctx, filter); err != nil {
			return fmt.Errorf("failed to fetch tasks: %w", err)
		}
		if err := eventStore.FetchPage(ctx, 1); err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}

		logger := log.New(os.Stderr, "[watch] ", log.LstdFlags)
		sub := client.NewSubscriber(cfg.ServerURL, logger)
		client.BindTasks(sub, taskStore)
		client.BindEvents(sub, eventStore)
		sub.Start()
		defer sub.Stop()

		render("")

		sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-sigCtx.Done()

		// Let in-flight handler output finish before the prompt returns
		time.Sleep(50 * time.Millisecond)
		fmt.Println()
		return nil
	},
}

func init() {
	watchCmd.Flags().String("filter", "all", "task filter: all, active, or completed")

	rootCmd.AddCommand(watchCmd)
}
