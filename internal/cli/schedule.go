package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт группу команд для управления schedules.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(clientFn, outputFn),
		newScheduleCreateCmd(clientFn, outputFn),
		newScheduleShowCmd(clientFn, outputFn),
		newScheduleUpdateCmd(clientFn, outputFn),
		newScheduleDeleteCmd(clientFn, outputFn),
		newScheduleEnableCmd(clientFn, outputFn, true),
		newScheduleEnableCmd(clientFn, outputFn, false),
	)

	return cmd
}

func scheduleRow(s ScheduleResponse) []string {
	expr := s.CronExpr
	if expr == "" && s.IntervalSec > 0 {
		expr = "every " + strconv.Itoa(s.IntervalSec) + "s"
	}
	return []string{s.ID, s.Model, s.Name, expr, strconv.FormatBool(s.Enabled), s.NextDueAt}
}

var scheduleHeaders = []string{"ID", "MODEL", "NAME", "SCHEDULE", "ENABLED", "NEXT_DUE"}

func newScheduleListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			schedules, err := client.ListSchedules()
			if err != nil {
				return err
			}

			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				rows[i] = scheduleRow(s)
			}

			out.Print(scheduleHeaders, rows, schedules)
			return nil
		},
	}
}

func newScheduleCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var repo, ref, name, cronExpr, timezone string
	var intervalSec int

	cmd := &cobra.Command{
		Use:   "create MODEL",
		Short: "Create a schedule for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sched, err := client.CreateSchedule(CreateScheduleRequest{
				Model:       args[0],
				Repo:        repo,
				Ref:         ref,
				Name:        name,
				CronExpr:    cronExpr,
				IntervalSec: intervalSec,
				Timezone:    timezone,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule created: %s", sched.ID))
			out.Print(scheduleHeaders, [][]string{scheduleRow(*sched)}, sched)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository in owner/name form (server default if empty)")
	cmd.Flags().StringVar(&ref, "ref", "", "Git ref to check out")
	cmd.Flags().StringVar(&name, "name", "", "Schedule name")
	cmd.Flags().StringVar(&cronExpr, "cron", "", `Cron expression, e.g. "0 2 * * *"`)
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "Interval in seconds (alternative to --cron)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone for cron evaluation (default UTC)")

	return cmd
}

func newScheduleShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sched, err := client.GetSchedule(args[0])
			if err != nil {
				return err
			}

			out.Print(scheduleHeaders, [][]string{scheduleRow(*sched)}, sched)
			return nil
		},
	}
}

func newScheduleUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, cronExpr, timezone string
	var intervalSec int

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateScheduleRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("cron") {
				req.CronExpr = &cronExpr
			}
			if cmd.Flags().Changed("interval") {
				req.IntervalSec = &intervalSec
			}
			if cmd.Flags().Changed("timezone") {
				req.Timezone = &timezone
			}

			sched, err := client.UpdateSchedule(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule updated: %s", sched.ID))
			out.Print(scheduleHeaders, [][]string{scheduleRow(*sched)}, sched)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Schedule name")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "Interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone for cron evaluation")

	return cmd
}

func newScheduleDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSchedule(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule deleted: %s", args[0]))
			return nil
		},
	}
}

func newScheduleEnableCmd(clientFn func() *Client, outputFn func() *Output, enable bool) *cobra.Command {
	use, short := "enable ID", "Enable a schedule"
	if !enable {
		use, short = "disable ID", "Disable a schedule"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var sched *ScheduleResponse
			var err error
			if enable {
				sched, err = client.EnableSchedule(args[0])
			} else {
				sched, err = client.DisableSchedule(args[0])
			}
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule %s: enabled=%v", sched.ID, sched.Enabled))
			return nil
		},
	}
}
