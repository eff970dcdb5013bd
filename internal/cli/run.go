package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage test runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
		newRunStepsCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var model string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				Model:  model,
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "MODEL", "TRIGGER", "STATUS", "PR", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				pr := ""
				if r.PRNumber > 0 {
					pr = strconv.Itoa(r.PRNumber)
				}
				rows[i] = []string{r.ID, r.Model, r.Trigger, r.Status, pr, r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Filter by model name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var repo string
	var ref string
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "start MODEL",
		Short: "Start a test run for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CreateRun(CreateRunRequest{
				Model:          args[0],
				Repo:           repo,
				Ref:            ref,
				IdempotencyKey: idempotencyKey,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run started: %s", run.ID))
			out.Print(
				[]string{"ID", "MODEL", "TRIGGER", "STATUS", "CREATED"},
				[][]string{{run.ID, run.Model, run.Trigger, run.Status, run.CreatedAt}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository in owner/name form (server default if empty)")
	cmd.Flags().StringVar(&ref, "ref", "", "Git ref to check out")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "MODEL", "TRIGGER", "STATUS", "ERROR", "CREATED"},
				[][]string{{run.ID, run.Model, run.Trigger, run.Status, run.Error, run.CreatedAt}},
				run,
			)
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a running run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelRun(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run cancelled: %s", run.ID))
			return nil
		},
	}
}

func newRunStepsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "steps RUN_ID",
		Short: "List steps in a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			steps, err := client.ListSteps(args[0])
			if err != nil {
				return err
			}

			headers := []string{"SEQ", "STEP", "TYPE", "STATUS", "EXIT", "ERROR"}
			rows := make([][]string, len(steps))
			for i, s := range steps {
				exit := ""
				if s.ExitCode != nil {
					exit = strconv.Itoa(*s.ExitCode)
				}
				rows[i] = []string{strconv.Itoa(s.Seq), s.StepID, s.Type, s.Status, exit, s.Error}
			}

			out.Print(headers, rows, steps)
			return nil
		},
	}
}
