package scm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shaiso/rd-cli/internal/client"
	"github.com/shaiso/rd-cli/internal/domain"
	"github.com/shaiso/rd-cli/internal/telemetry"
)

// API — вызовы сервера, нужные SCM-операциям. Реализуется *client.Client.
type API interface {
	ScmConfig(ctx context.Context, project, integration string) (*client.ScmConfig, error)
	SetupScm(ctx context.Context, project, integration, pluginType string, config []byte) (*client.Response, error)
	ScmStatus(ctx context.Context, project, integration string) (*client.ScmProjectStatus, error)
	EnableScmPlugin(ctx context.Context, project, integration, pluginType string) error
	DisableScmPlugin(ctx context.Context, project, integration, pluginType string) error
	ScmSetupInputs(ctx context.Context, project, integration, pluginType string) (*client.ScmSetupInputs, error)
	ScmActionInputs(ctx context.Context, project, integration, actionID string) (*client.ScmActionInputs, error)
	PerformScmAction(ctx context.Context, project, integration, actionID string, req client.ScmActionPerform) (*client.Response, error)
	ScmPlugins(ctx context.Context, project, integration string) (*client.ScmPluginsResult, error)
}

// Target — проект и направление интеграции.
type Target struct {
	Project     string
	Integration domain.Integration
}

// NewTarget проверяет integration и проект и выбирает эффективный проект:
// явный, иначе defaultProject. Сетевых вызовов не делает.
func NewTarget(project, defaultProject, integration string) (Target, error) {
	kind, err := domain.ParseIntegration(integration)
	if err != nil {
		return Target{}, err
	}
	resolved, err := domain.ResolveProject(project, defaultProject)
	if err != nil {
		return Target{}, err
	}
	return Target{Project: resolved, Integration: kind}, nil
}

// Pipeline выполняет SCM-операции.
type Pipeline struct {
	api API
}

// NewPipeline создаёт Pipeline.
func NewPipeline(api API) *Pipeline {
	return &Pipeline{api: api}
}

// Config возвращает конфигурацию плагина.
func (p *Pipeline) Config(ctx context.Context, t Target) (*client.ScmConfig, error) {
	return p.api.ScmConfig(ctx, t.Project, t.Integration.String())
}

// Setup отправляет файл конфигурации плагина как есть.
func (p *Pipeline) Setup(ctx context.Context, t Target, pluginType, configFile string) (Outcome, error) {
	if pluginType == "" {
		return Outcome{}, fmt.Errorf("%w: plugin type (-t)", domain.ErrMissingID)
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrConfigFile, err)
	}
	name := "Setup config Validation for file: " + absPath(configFile)

	resp, err := p.api.SetupScm(ctx, t.Project, t.Integration.String(), pluginType, data)
	if err != nil {
		return Outcome{Name: name}, err
	}

	out, err := DecodeOutcome(resp, name)
	if out.Kind == OutcomeOK {
		out.Name = "Setup"
	}
	return out, err
}

// Status возвращает состояние синхронизации. Clean — synchState == CLEAN.
func (p *Pipeline) Status(ctx context.Context, t Target) (status *client.ScmProjectStatus, clean bool, err error) {
	status, err = p.api.ScmStatus(ctx, t.Project, t.Integration.String())
	if err != nil {
		return nil, false, err
	}
	return status, status.SynchState.IsClean(), nil
}

// Enable включает плагин.
func (p *Pipeline) Enable(ctx context.Context, t Target, pluginType string) error {
	if pluginType == "" {
		return fmt.Errorf("%w: plugin type (-t)", domain.ErrMissingID)
	}
	return p.api.EnableScmPlugin(ctx, t.Project, t.Integration.String(), pluginType)
}

// Disable выключает плагин.
func (p *Pipeline) Disable(ctx context.Context, t Target, pluginType string) error {
	if pluginType == "" {
		return fmt.Errorf("%w: plugin type (-t)", domain.ErrMissingID)
	}
	return p.api.DisableScmPlugin(ctx, t.Project, t.Integration.String(), pluginType)
}

// SetupInputs возвращает поля настройки плагина в порядке сервера.
func (p *Pipeline) SetupInputs(ctx context.Context, t Target, pluginType string) (*client.ScmSetupInputs, error) {
	if pluginType == "" {
		return nil, fmt.Errorf("%w: plugin type (-t)", domain.ErrMissingID)
	}
	return p.api.ScmSetupInputs(ctx, t.Project, t.Integration.String(), pluginType)
}

// ActionInputs возвращает описание действия. Заполнены ExportItems
// или ImportItems, по integration.
func (p *Pipeline) ActionInputs(ctx context.Context, t Target, actionID string) (*client.ScmActionInputs, error) {
	if actionID == "" {
		return nil, fmt.Errorf("%w: action (-a)", domain.ErrMissingID)
	}
	return p.api.ScmActionInputs(ctx, t.Project, t.Integration.String(), actionID)
}

// Plugins возвращает плагины интеграции в порядке сервера.
func (p *Pipeline) Plugins(ctx context.Context, t Target) ([]client.ScmPlugin, error) {
	result, err := p.api.ScmPlugins(ctx, t.Project, t.Integration.String())
	if err != nil {
		return nil, err
	}
	return result.Plugins, nil
}

// NewPerformRequest строит запрос из явных значений флагов.
// fields — список KEY=VALUE; отсутствующие списки становятся пустыми.
func NewPerformRequest(fields, items, jobs, deleted []string) (client.ScmActionPerform, error) {
	input, err := ParseFields(fields)
	if err != nil {
		return client.ScmActionPerform{}, err
	}
	return client.ScmActionPerform{
		Input:       input,
		Items:       unique(items),
		Jobs:        unique(jobs),
		Deleted:     unique(deleted),
		DeletedJobs: []string{},
	}, nil
}

// ParseFields разбирает KEY=VALUE. Значение может содержать "=".
func ParseFields(fields []string) (map[string]string, error) {
	input := make(map[string]string, len(fields))
	for _, kv := range fields {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q, expected KEY=VALUE", domain.ErrInvalidField, kv)
		}
		input[key] = value
	}
	return input, nil
}

// PrepareRequest дополняет req выбором из ActionInputs, если sel
// применим к integration. Иначе возвращает req без изменений.
func (p *Pipeline) PrepareRequest(ctx context.Context, t Target, actionID string, req client.ScmActionPerform, sel Selection) (client.ScmActionPerform, error) {
	if !sel.Applies(t.Integration) {
		return req, nil
	}

	inputs, err := p.ActionInputs(ctx, t, actionID)
	if err != nil {
		return req, fmt.Errorf("list items for action %s: %w", actionID, err)
	}

	selected := SelectItems(t.Integration, ItemsFromInputs(t.Integration, inputs), sel)
	telemetry.FromContext(ctx).Debug("selected scm items",
		"action", actionID,
		"items", len(selected.Items),
		"deleted_items", len(selected.DeletedItems),
		"deleted_jobs", len(selected.DeletedJobs),
	)
	return selected.Apply(req), nil
}

// Perform выполняет действие actionID.
func (p *Pipeline) Perform(ctx context.Context, t Target, actionID string, req client.ScmActionPerform, sel Selection) (Outcome, error) {
	name := "Action " + actionID
	if actionID == "" {
		return Outcome{Name: name}, fmt.Errorf("%w: action (-a)", domain.ErrMissingID)
	}

	req, err := p.PrepareRequest(ctx, t, actionID, req, sel)
	if err != nil {
		return Outcome{Name: name}, err
	}

	resp, err := p.api.PerformScmAction(ctx, t.Project, t.Integration.String(), actionID, req)
	if err != nil {
		return Outcome{Name: name}, err
	}
	return DecodeOutcome(resp, name)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
