package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Gandasoft/polylearner/internal/planner"
)

var (
	taskTitle    string
	taskGoal     string
	taskCategory string
	taskHours    float64
	taskPriority int
	taskDue      string
	taskDeps     []string
	taskEnergy   string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the task backlog (add, list, delete)",
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task to the backlog",
	Long: `Adds a task to the local database.

Example:
  polylearner tasks add --title "Implement parser" --category coding --hours 4 --priority 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := planner.Task{
			ID:           uuid.NewString(),
			Title:        taskTitle,
			Goal:         taskGoal,
			Category:     planner.Category(strings.ToLower(taskCategory)),
			TimeHours:    taskHours,
			Priority:     taskPriority,
			Dependencies: taskDeps,
			EnergyLevel:  planner.EnergyLevel(taskEnergy),
		}
		if taskDue != "" {
			due, err := time.ParseInLocation("2006-01-02", taskDue, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --due date (want YYYY-MM-DD): %w", err)
			}
			t.DueDate = &due
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveTask(t); err != nil {
			return err
		}
		fmt.Printf("✓ Added task %s (%s)\n", t.ID, t.Title)
		return nil
	},
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, highest priority first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		tasks, err := st.ListTasks()
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks yet. Add one with: polylearner tasks add")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tHOURS\tPRIORITY\tDUE\tDEPS")
		for _, t := range tasks {
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			deps := "-"
			if len(t.Dependencies) > 0 {
				deps = strings.Join(t.Dependencies, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%d\t%s\t%s\n",
				t.ID, t.Title, t.Category, t.TimeHours, t.Priority, due, deps)
		}
		return w.Flush()
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteTask(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted task %s\n", args[0])
		return nil
	},
}

func init() {
	tasksAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	tasksAddCmd.Flags().StringVar(&taskGoal, "goal", "", "Learning goal this task serves")
	tasksAddCmd.Flags().StringVar(&taskCategory, "category", "", "Category: research, coding, admin, networking (required)")
	tasksAddCmd.Flags().Float64Var(&taskHours, "hours", 1, "Estimated hours")
	tasksAddCmd.Flags().IntVar(&taskPriority, "priority", 5, "Priority 1-10")
	tasksAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	tasksAddCmd.Flags().StringSliceVar(&taskDeps, "deps", nil, "Dependency task ids")
	tasksAddCmd.Flags().StringVar(&taskEnergy, "energy", "", "Energy level: high, medium, low")
	_ = tasksAddCmd.MarkFlagRequired("title")
	_ = tasksAddCmd.MarkFlagRequired("category")

	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)
}
