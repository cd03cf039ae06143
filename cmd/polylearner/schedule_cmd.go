package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Gandasoft/polylearner/internal/planner"
	"github.com/Gandasoft/polylearner/internal/store"
)

var (
	tasksFile    string
	syncCalendar bool
	jsonOutput   bool
)

// loadTasks reads tasks from --file when given, the database otherwise.
func loadTasks(st *store.TaskStore) ([]planner.Task, error) {
	if tasksFile != "" {
		data, err := os.ReadFile(tasksFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", tasksFile, err)
		}
		var tasks []planner.Task
		if err := json.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", tasksFile, err)
		}
		return tasks, nil
	}
	return st.ListTasks()
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Plan the week: group, place, score, recommend",
	Long: `Computes a conflict-free weekly schedule for the current task backlog.

Tasks are grouped, placed into daily working windows (peak hours go to
high-energy work), and the finished week is scored for cognitive tax.
Hours that do not fit are reported, never silently dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := buildEngine(st)
		if err != nil {
			return err
		}

		tasks, err := loadTasks(st)
		if err != nil {
			return err
		}

		plan, err := engine.PlanWeek(cmd.Context(), tasks, nil)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(plan)
		}

		fmt.Printf("Week of %s\n\n", plan.Schedule.WeekStart.Format("Monday, January 2 2006"))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tTIME\tTASK\tCATEGORY\tREASON")
		for _, b := range plan.Schedule.Blocks {
			fmt.Fprintf(w, "%s\t%s-%s\t%s\t%s\t%s\n",
				b.StartTime.Format("Mon"),
				b.StartTime.Format("15:04"), b.EndTime.Format("15:04"),
				b.TaskTitle, b.Category, b.SchedulingReason)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\nTotal: %.1fh scheduled, cognitive tax %.2f (%s)\n",
			plan.Schedule.TotalHours, plan.Metrics.CognitiveTaxScore, plan.Metrics.Interpretation)

		if len(plan.Unschedulable) > 0 {
			fmt.Println("\nCould not fit:")
			for _, u := range plan.Unschedulable {
				fmt.Printf("  - %s: %.1fh (%s)\n", u.TaskID, u.Hours, u.Reason)
			}
		}
		if len(plan.Recommendations) > 0 {
			fmt.Println("\nRecommendations:")
			for _, rec := range plan.Recommendations {
				fmt.Printf("  [%d] %s\n", rec.Priority, rec.Suggestion)
			}
		}

		if syncCalendar {
			results, err := engine.SyncCalendar(cmd.Context(), plan.Schedule)
			if err != nil {
				return err
			}
			created := 0
			for _, r := range results {
				if r.Error == "" {
					created++
				} else {
					fmt.Printf("  calendar: block %s failed: %s\n", r.TaskID, r.Error)
				}
			}
			fmt.Printf("\n✓ Created %d/%d calendar events\n", created, len(results))
		}
		return nil
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show how tasks would be grouped",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := buildEngine(st)
		if err != nil {
			return err
		}

		tasks, err := loadTasks(st)
		if err != nil {
			return err
		}

		groups := engine.GroupTasks(cmd.Context(), tasks)
		if jsonOutput {
			return printJSON(groups)
		}
		for _, g := range groups {
			fmt.Printf("%s (%.1fh)\n", g.Name, g.TotalHours)
			for _, id := range g.TaskIDs {
				fmt.Printf("  - %s\n", id)
			}
		}
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest schedule improvements",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := buildEngine(st)
		if err != nil {
			return err
		}

		tasks, err := loadTasks(st)
		if err != nil {
			return err
		}

		result, err := engine.ComputeSchedule(cmd.Context(), tasks, nil)
		if err != nil {
			return err
		}
		recs := engine.Recommend(cmd.Context(), result, tasks)
		if jsonOutput {
			return printJSON(recs)
		}
		for _, rec := range recs {
			fmt.Printf("[%d] %s\n    %s\n", rec.Priority, rec.Suggestion, rec.Reason)
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show workload statistics for the task backlog",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := buildEngine(st)
		if err != nil {
			return err
		}

		tasks, err := loadTasks(st)
		if err != nil {
			return err
		}

		analysis := engine.AnalyzeTasks(cmd.Context(), tasks)
		if jsonOutput {
			return printJSON(analysis)
		}
		fmt.Printf("Tasks: %d, total %.1fh (avg %.1fh, avg priority %.1f, %s week)\n",
			analysis.TotalTasks, analysis.TotalHours,
			analysis.AverageTaskDuration, analysis.AveragePriority, analysis.Workload)
		for cat, stats := range analysis.Categories {
			fmt.Printf("  %s: %d tasks, %.1fh\n", cat, stats.Count, stats.TotalHours)
		}
		if analysis.MostCommonCategory != "" {
			fmt.Printf("Most common category: %s\n", analysis.MostCommonCategory)
		}
		if analysis.Insights != "" {
			fmt.Printf("\n%s\n", analysis.Insights)
		}
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{scheduleCmd, groupsCmd, recommendCmd, analyzeCmd} {
		c.Flags().StringVar(&tasksFile, "file", "", "Read tasks from a JSON file instead of the database")
		c.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	}
	scheduleCmd.Flags().BoolVar(&syncCalendar, "sync", false, "Push the schedule to the configured calendar")
}
