package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/rd-cli/internal/client"
	"github.com/shaiso/rd-cli/internal/domain"
	"github.com/shaiso/rd-cli/internal/mq"
	"github.com/shaiso/rd-cli/internal/stream"
)

// NewExecutionsCmd создаёт группу команд для управления executions.
func NewExecutionsCmd(envFn func() *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "executions",
		Short: "List running executions, follow output, abort",
	}

	cmd.AddCommand(
		newExecutionsKillCmd(envFn),
		newExecutionsFollowCmd(envFn),
		newExecutionsListCmd(envFn),
	)

	return cmd
}

func newExecutionsKillCmd(envFn func() *Env) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "kill",
		Short: "Attempt to kill an execution by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("%w: -e is required", domain.ErrMissingID)
			}
			env := envFn()
			out := env.Out

			res, err := env.Client.AbortExecution(cmd.Context(), id)
			if err != nil {
				return err
			}
			failed := res.Abort.Status == client.AbortStatusFailed

			if out.Structured() {
				out.Output(res)
				return result(!failed)
			}

			out.Output(fmt.Sprintf("Kill [%s] result: %s", id, res.Abort.Status))
			if res.Execution != nil {
				out.Output(fmt.Sprintf("Execution [%s] status: %s", id, res.Execution.Status))
			}
			if failed {
				out.Output(fmt.Sprintf("Kill request failed: %s", res.Abort.Reason))
			}
			return result(!failed)
		},
	}

	cmd.Flags().StringVarP(&id, "eid", "e", "", "Execution ID")

	return cmd
}

func newExecutionsFollowCmd(envFn func() *Env) *cobra.Command {
	var id string
	var opts stream.Options

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Follow the output of an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("%w: -e is required", domain.ErrMissingID)
			}
			env := envFn()
			ctx := cmd.Context()

			streamOpts := []stream.Option{
				stream.WithMetrics(env.Metrics),
				stream.WithLineFilter(env.Out.StripANSI),
			}
			if env.Sleeper != nil {
				streamOpts = append(streamOpts, stream.WithSleeper(env.Sleeper))
			}
			s := stream.New(env.Client, env.Out.Writer(), streamOpts...)

			res, err := s.Follow(ctx, id, opts)
			if err != nil {
				return err
			}

			if res.Completed {
				env.notify(ctx, func(n Notifier) error {
					return n.PublishExecutionFinished(ctx, mq.ExecutionFinishedPayload{
						ExecutionID: id,
						State:       res.State.String(),
						Succeeded:   res.Succeeded(),
						Lines:       res.Lines,
					})
				})
			}

			return result(res.Succeeded())
		},
	}

	cmd.Flags().StringVarP(&id, "eid", "e", "", "Execution ID")
	cmd.Flags().BoolVarP(&opts.Restart, "restart", "r", false, "Restart from the beginning")
	cmd.Flags().Int64VarP(&opts.Tail, "tail", "T", 1, "Number of lines to tail from the end")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "Show a progress indicator instead of output")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not echo log text")
	cmd.Flags().IntVar(&opts.MaxLines, "max-lines", stream.DefaultMaxLines, "Maximum lines per fetch")

	return cmd
}

func newExecutionsListCmd(envFn func() *Env) *cobra.Command {
	var project string
	var offset int
	var max int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List running executions for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			out := env.Out

			p, err := domain.ResolveProject(project, env.DefaultProject)
			if err != nil {
				return err
			}

			list, err := env.Client.RunningExecutions(cmd.Context(), p, offset, max)
			if err != nil {
				return err
			}

			if out.Structured() {
				out.Output(list.Executions)
				return nil
			}

			out.Info(fmt.Sprintf("Running executions: %d items", list.Paging.Count))
			for i := range list.Executions {
				out.Output(list.Executions[i].BasicString())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Offset for first result")
	cmd.Flags().IntVarP(&max, "max", "m", 20, "Maximum number of results")

	return cmd
}
