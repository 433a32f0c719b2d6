package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/AhmedMotwaly/taskapp-3tier/cmd/cli/auth"
	"github.com/AhmedMotwaly/taskapp-3tier/cmd/cli/config"
	"github.com/AhmedMotwaly/taskapp-3tier/cmd/cli/output"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Tasks
// ==========================
func InitTasks(rootCmd *cobra.Command) {

	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}

	tasksCmd.AddCommand(
		listTasksCmd(),
		addTaskCmd(),
		doneTaskCmd(),
		rmTaskCmd(),
	)

	rootCmd.AddCommand(tasksCmd, statsCmd(), healthCmd())
}

// ==========================
// LIST
// ==========================
func listTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks []models.Task
			if err := callAPI("GET", "/api/tasks", nil, &tasks); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(tasks))
			for _, t := range tasks {
				due := ""
				if t.DueDate != nil {
					due = *t.DueDate
				}
				rows = append(rows, []interface{}{t.ID, t.Title, t.Status, t.Priority, due})
			}

			output.RenderTable([]string{"ID", "Title", "Status", "Priority", "Due"}, rows)
			return nil
		},
	}
}

// ==========================
// ADD
// ==========================
func addTaskCmd() *cobra.Command {

	var description string
	var priority string
	var dueDate string

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"title": args[0],
			}
			if description != "" {
				payload["description"] = description
			}
			if priority != "" {
				payload["priority"] = priority
			}
			if dueDate != "" {
				payload["due_date"] = dueDate
			}

			var out struct {
				ID      int    `json:"id"`
				Message string `json:"message"`
			}
			if err := callAPI("POST", "/api/tasks", payload, &out); err != nil {
				return err
			}

			fmt.Printf("%s (id %d)\n", out.Message, out.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")

	return cmd
}

// ==========================
// DONE
// ==========================
func doneTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"status": models.StatusCompleted}

			if err := callAPI("PUT", "/api/tasks/"+args[0], payload, nil); err != nil {
				return err
			}

			fmt.Println("Task marked completed")
			return nil
		},
	}
}

// ==========================
// REMOVE
// ==========================
func rmTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := callAPI("DELETE", "/api/tasks/"+args[0], nil, nil); err != nil {
				return err
			}

			fmt.Println("Task deleted")
			return nil
		},
	}
}

// ==========================
// STATS
// ==========================
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats models.TaskStats
			if err := callAPI("GET", "/api/stats", nil, &stats); err != nil {
				return err
			}

			rows := [][]interface{}{}
			for _, s := range []string{models.StatusPending, models.StatusInProgress, models.StatusCompleted} {
				rows = append(rows, []interface{}{"status", s, stats.StatusCounts[s]})
			}
			for _, p := range []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh} {
				rows = append(rows, []interface{}{"priority", p, stats.PriorityCounts[p]})
			}
			rows = append(rows,
				[]interface{}{"", "overdue", stats.OverdueCount},
				[]interface{}{"", "total", stats.TotalTasks},
			)

			output.RenderTable([]string{"Group", "Bucket", "Count"}, rows)
			return nil
		},
	}
}

// ==========================
// HEALTH
// ==========================
func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(config.APIURL() + "/health")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
			return nil
		},
	}
}

// callAPI sends an authenticated request with the stored session cookie and
// decodes the JSON response into out when out is non-nil.
func callAPI(method, path string, payload interface{}, out interface{}) error {
	cookie, err := auth.LoadSession()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Cookie", cookie)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("session expired, please login again")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
	}

	return nil
}
