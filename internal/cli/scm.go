package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/rd-cli/internal/domain"
	"github.com/shaiso/rd-cli/internal/mq"
	"github.com/shaiso/rd-cli/internal/scm"
	"github.com/shaiso/rd-cli/internal/telemetry"
)

// scmTarget — общие флаги -p и -i.
type scmTarget struct {
	project     string
	integration string
}

func (t *scmTarget) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&t.project, "project", "p", "", "Project name")
	cmd.Flags().StringVarP(&t.integration, "integration", "i", "", "Integration type (import, export)")
}

func (t *scmTarget) resolve(env *Env) (scm.Target, error) {
	return scm.NewTarget(t.project, env.DefaultProject, t.integration)
}

// NewScmCmd создаёт группу команд для управления SCM проекта.
func NewScmCmd(envFn func() *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scm",
		Short: "Manage project SCM",
	}

	cmd.AddCommand(
		newScmConfigCmd(envFn),
		newScmSetupCmd(envFn),
		newScmStatusCmd(envFn),
		newScmEnableCmd(envFn),
		newScmDisableCmd(envFn),
		newScmSetupInputsCmd(envFn),
		newScmInputsCmd(envFn),
		newScmPerformCmd(envFn),
		newScmPluginsCmd(envFn),
	)

	return cmd
}

func newScmConfigCmd(envFn func() *Env) *cobra.Command {
	var target scmTarget
	var file string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get SCM config for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			t, err := target.resolve(env)
			if err != nil {
				return err
			}

			cfg, err := scm.NewPipeline(env.Client).Config(cmd.Context(), t)
			if err != nil {
				return err
			}

			if file == "" {
				env.Out.Info(fmt.Sprintf("SCM Plugin type: %s", cfg.Type))
				env.Out.Output(cfg.Config)
				return nil
			}

			data, err := json.MarshalIndent(map[string]any{"config": cfg.Config}, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}
			env.Out.Info(fmt.Sprintf("Wrote config to file: %s", file))
			return nil
		},
	}

	target.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write config to a JSON file")

	return cmd
}

func newScmSetupCmd(envFn func() *Env) *cobra.Command {
	var target scmTarget
	var pluginType string
	var file string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Setup SCM for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			t, err := target.resolve(env)
			if err != nil {
				return err
			}
			if file == "" {
				return fmt.Errorf("%w: config file (-f)", domain.ErrMissingID)
			}

			outcome, err := scm.NewPipeline(env.Client).Setup(cmd.Context(), t, pluginType, file)
			if err != nil {
				return err
			}
			return renderOutcome(cmd, env, t, outcome)
		},
	}

	target.bind(cmd)
	cmd.Flags().StringVarP(&pluginType, "type", "t", "", "Plugin type")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Config file (JSON)")

	return cmd
}

func newScmStatusCmd(envFn func() *Env) *cobra.Command {
	var target scmTarget

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Get SCM status for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			t, err := target.resolve(env)
			if err != nil {
				return err
			}

			status, clean, err := scm.NewPipeline(env.Client).Status(cmd.Context(), t)
			if err != nil {
				return err
			}

			env.Out.Output(status.ToMap())
			return result(clean)
		},
	}

	target.bind(cmd)

	return cmd
}

func newScmEnableCmd(envFn func() *Env) *cobra.Command {
	return newScmToggleCmd(envFn, "enable", "Enable plugin", "Plugin enabled", (*scm.Pipeline).Enable)
}

func newScmDisableCmd(envFn func() *Env) *cobra.Command {
	return newScmToggleCmd(envFn, "disable", "Disable plugin", "Plugin disabled", (*scm.Pipeline).Disable)
}

type toggleFunc func(p *scm.Pipeline, ctx context.Context, t scm.Target, pluginType string) error

func newScmToggleCmd(envFn func() *Env, use, short, done string, fn toggleFunc) *cobra.Command {
	var target scmTarget
	var pluginType string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			t, err := target.resolve(env)
			if err != nil {
				return err
			}
			if err := fn(scm.NewPipeline(env.Client), cmd.Context(), t, pluginType); err != nil {
				return err
			}
			env.Out.Success(fmt.Sprintf("%s: %s (%s)", done, pluginType, t.Integration))
			return nil
		},
	}

	target.bind(cmd)
	cmd.Flags().StringVarP(&pluginType, "type", "t", "", "Plugin type")

	return cmd
}

func newScmSetupInputsCmd(envFn func() *Env) *cobra.Command {
	var target scmTarget
	var pluginType string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "setupinputs",
		Short: "Get SCM setup inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			t, err := target.resolve(env)
			if err != nil {
				return err
			}

			inputs, err := scm.NewPipeline(env.Client).SetupInputs(cmd.Context(), t, pluginType)
			if err != nil {
				return err
			}

			if env.Out.Structured() {
				env.Out.Output(inputs.Fields)
				return nil
			}
			for i := range inputs.Fields {
				f := &inputs.Fields[i]
				if verbose {
					env.Out.Output(f.AsMap())
					continue
				}
				env.Out.Output(fmt.Sprintf("%s: %s", f.Name, f.Description))
			}
			return nil
		},
	}

	target.bind(cmd)
	cmd.Flags().StringVarP(&pluginType, "type", "t", "", "Plugin type")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show all field details")

	return cmd
}

func newScmInputsCmd(envFn func() *Env) *cobra.Command {
	var target scmTarget
	var actionID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "inputs",
		Short: "Get Project SCM Action Input Fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			out := env.Out
			t, err := target.resolve(env)
			if err != nil {
				return err
			}

			inputs, err := scm.NewPipeline(env.Client).ActionInputs(cmd.Context(), t, actionID)
			if err != nil {
				return err
			}

			if out.Structured() {
				out.Output(inputs)
				return nil
			}

			out.Info(fmt.Sprintf("Action %s: %s", inputs.ActionID, inputs.Title))
			if inputs.Description != "" {
				out.Output(inputs.Description)
			}
			if len(inputs.Fields) > 0 {
				out.Info("Fields:")
				for i := range inputs.Fields {
					f := &inputs.Fields[i]
					if verbose {
						out.Output(f.AsMap())
						continue
					}
					out.Output(fmt.Sprintf("%s: %s", f.Name, f.Description))
				}
			}
			if len(inputs.ExportItems) > 0 {
				out.Info("Items:")
				for i := range inputs.ExportItems {
					out.Output(inputs.ExportItems[i].AsMap())
				}
			}
			if len(inputs.ImportItems) > 0 {
				out.Info("Items:")
				for i := range inputs.ImportItems {
					out.Output(inputs.ImportItems[i].AsMap())
				}
			}
			return nil
		},
	}

	target.bind(cmd)
	cmd.Flags().StringVarP(&actionID, "action", "a", "", "Action ID")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show all field details")

	return cmd
}

func newScmPerformCmd(envFn func() *Env) *cobra.Command {
	var target scmTarget
	var actionID string
	var fields, items, jobs, deleted []string
	var sel scm.Selection

	cmd := &cobra.Command{
		Use:   "perform",
		Short: "Perform SCM action",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			t, err := target.resolve(env)
			if err != nil {
				return err
			}

			req, err := scm.NewPerformRequest(fields, items, jobs, deleted)
			if err != nil {
				return err
			}

			outcome, err := scm.NewPipeline(env.Client).Perform(cmd.Context(), t, actionID, req, sel)
			if err != nil {
				return err
			}
			return renderOutcome(cmd, env, t, outcome)
		},
	}

	target.bind(cmd)
	f := cmd.Flags()
	f.StringVarP(&actionID, "action", "a", "", "Action ID")
	f.StringArrayVarP(&fields, "field", "f", nil, "Field input values, KEY=VALUE (repeatable)")
	f.StringSliceVarP(&items, "item", "I", nil, "Items to include")
	f.StringSliceVarP(&jobs, "job", "j", nil, "Job IDs to include")
	f.StringSliceVarP(&deleted, "delete", "d", nil, "Items to delete")
	f.BoolVarP(&sel.AllItems, "allitems", "A", false, "Include all items")
	f.BoolVarP(&sel.AllModified, "allmodified", "M", false, "Include all modified items (export only)")
	f.BoolVarP(&sel.AllDeleted, "alldeleted", "D", false, "Include all deleted items (export only)")
	f.BoolVarP(&sel.AllTracked, "alltracked", "T", false, "Include all tracked items (import only)")
	f.BoolVarP(&sel.AllUntracked, "alluntracked", "U", false, "Include all untracked items (import only)")

	return cmd
}

func newScmPluginsCmd(envFn func() *Env) *cobra.Command {
	var target scmTarget

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List SCM plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFn()
			t, err := target.resolve(env)
			if err != nil {
				return err
			}

			plugins, err := scm.NewPipeline(env.Client).Plugins(cmd.Context(), t)
			if err != nil {
				return err
			}

			headers := []string{"TYPE", "TITLE", "CONFIGURED", "ENABLED"}
			rows := make([][]string, len(plugins))
			for i, p := range plugins {
				rows[i] = []string{p.Type, p.Title, fmt.Sprint(p.Configured), fmt.Sprint(p.Enabled)}
			}

			env.Out.Print(headers, rows, plugins)
			return nil
		},
	}

	target.bind(cmd)

	return cmd
}

// renderOutcome выводит результат setup/perform и публикует событие.
func renderOutcome(cmd *cobra.Command, env *Env, t scm.Target, o scm.Outcome) error {
	ctx := cmd.Context()
	out := env.Out

	switch o.Kind {
	case scm.OutcomeValidation:
		out.Error(o.Name + " failed")
		if o.Result.Message != "" {
			out.Warning(o.Result.Message)
		}
		out.Output(out.Colorize(o.Body))
	default:
		if o.Result.Success {
			out.Info(o.Name + " was successful.")
		} else {
			out.Warning(o.Name + " was not successful.")
		}
		if o.Result.Message != "" {
			out.Info("Result: " + o.Result.Message)
		}
		if o.Result.NextAction != "" {
			out.Info("Next Action: " + out.Highlight(o.Result.NextAction))
		}
	}

	logger := telemetry.WithProject(telemetry.FromContext(ctx), t.Project, t.Integration.String())
	logger.Debug("scm action finished", "action", o.Name, "outcome", o.Kind.String(), "success", o.Result.Success)

	env.notify(ctx, func(n Notifier) error {
		return n.PublishScmAction(ctx, mq.ScmActionPayload{
			Project:     t.Project,
			Integration: t.Integration.String(),
			Action:      o.Name,
			Outcome:     o.Kind.String(),
			Success:     o.Result.Success,
			Message:     o.Result.Message,
		})
	})

	return result(o.Succeeded())
}
