package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/rd-cli/internal/telemetry"
)

// ContentTypeJSON — тип тела запросов и ожидаемых ответов.
const ContentTypeJSON = "application/json"

// Options — параметры клиента.
type Options struct {
	URL        string
	Token      string
	APIVersion int
	Timeout    time.Duration
	UserAgent  string

	// HTTPClient — для тестов; по умолчанию http.Client с Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics
}

// Client — HTTP-клиент для API сервера.
//
// Один вызов метода — один HTTP-запрос, без повторов.
// Клиент не хранит состояния между вызовами.
type Client struct {
	baseURL    string
	apiVersion int
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// New создаёт клиент для API.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "rd-cli"
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		apiVersion: opts.APIVersion,
		token:      opts.Token,
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Response — сырой ответ сервера.
// Тело прочитано целиком, чтобы его можно было декодировать повторно.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// IsSuccess возвращает true для 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err возвращает *Error для не-2xx ответа, иначе nil.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return newError(r)
}

// Decode декодирует тело как JSON в v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrDecode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// --- Executions ---

// AbortExecution прерывает execution.
func (c *Client) AbortExecution(ctx context.Context, id string) (*AbortResult, error) {
	var result AbortResult
	err := c.post(ctx, "execution_abort", "/execution/"+seg(id)+"/abort", nil, &result)
	return &result, err
}

// ExecutionOutput возвращает порцию вывода execution.
func (c *Client) ExecutionOutput(ctx context.Context, id string, q OutputQuery) (*ExecOutput, error) {
	params := url.Values{}
	if q.Tail {
		params.Set("lastlines", strconv.FormatInt(q.LastLines, 10))
	} else {
		params.Set("offset", strconv.FormatInt(q.Offset, 10))
		params.Set("lastmod", strconv.FormatInt(q.LastModified, 10))
		if q.MaxLines > 0 {
			params.Set("maxlines", strconv.Itoa(q.MaxLines))
		}
	}

	var out ExecOutput
	err := c.get(ctx, "execution_output", "/execution/"+seg(id)+"/output", params, &out)
	return &out, err
}

// RunningExecutions возвращает выполняющиеся executions проекта.
func (c *Client) RunningExecutions(ctx context.Context, project string, offset, max int) (*ExecutionList, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("max", strconv.Itoa(max))

	var list ExecutionList
	err := c.get(ctx, "executions_running", "/project/"+seg(project)+"/executions/running", params, &list)
	return &list, err
}

// --- SCM ---

func scmPath(project, integration string) string {
	return "/project/" + seg(project) + "/scm/" + seg(integration)
}

// ScmConfig возвращает конфигурацию SCM-плагина.
func (c *Client) ScmConfig(ctx context.Context, project, integration string) (*ScmConfig, error) {
	var cfg ScmConfig
	err := c.get(ctx, "scm_config", scmPath(project, integration)+"/config", nil, &cfg)
	return &cfg, err
}

// SetupScm отправляет конфигурацию плагина как есть (raw JSON).
// Возвращает сырой ответ: 400 с телом ScmActionResult разбирает вызывающий.
func (c *Client) SetupScm(ctx context.Context, project, integration, pluginType string, config []byte) (*Response, error) {
	path := scmPath(project, integration) + "/plugin/" + seg(pluginType) + "/setup"
	return c.Do(ctx, "scm_setup", http.MethodPost, path, nil, bytes.NewReader(config), ContentTypeJSON)
}

// ScmStatus возвращает состояние синхронизации.
func (c *Client) ScmStatus(ctx context.Context, project, integration string) (*ScmProjectStatus, error) {
	var status ScmProjectStatus
	err := c.get(ctx, "scm_status", scmPath(project, integration)+"/status", nil, &status)
	return &status, err
}

// EnableScmPlugin включает плагин.
func (c *Client) EnableScmPlugin(ctx context.Context, project, integration, pluginType string) error {
	path := scmPath(project, integration) + "/plugin/" + seg(pluginType) + "/enable"
	return c.post(ctx, "scm_enable", path, nil, nil)
}

// DisableScmPlugin выключает плагин.
func (c *Client) DisableScmPlugin(ctx context.Context, project, integration, pluginType string) error {
	path := scmPath(project, integration) + "/plugin/" + seg(pluginType) + "/disable"
	return c.post(ctx, "scm_disable", path, nil, nil)
}

// ScmSetupInputs возвращает поля настройки плагина.
func (c *Client) ScmSetupInputs(ctx context.Context, project, integration, pluginType string) (*ScmSetupInputs, error) {
	var inputs ScmSetupInputs
	path := scmPath(project, integration) + "/plugin/" + seg(pluginType) + "/input"
	err := c.get(ctx, "scm_setup_inputs", path, nil, &inputs)
	return &inputs, err
}

// ScmActionInputs возвращает поля и items действия.
func (c *Client) ScmActionInputs(ctx context.Context, project, integration, actionID string) (*ScmActionInputs, error) {
	var inputs ScmActionInputs
	path := scmPath(project, integration) + "/action/" + seg(actionID) + "/input"
	err := c.get(ctx, "scm_action_inputs", path, nil, &inputs)
	return &inputs, err
}

// PerformScmAction выполняет действие. Возвращает сырой ответ,
// как и SetupScm.
func (c *Client) PerformScmAction(ctx context.Context, project, integration, actionID string, req ScmActionPerform) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	path := scmPath(project, integration) + "/action/" + seg(actionID)
	return c.Do(ctx, "scm_perform", http.MethodPost, path, nil, bytes.NewReader(data), ContentTypeJSON)
}

// ScmPlugins возвращает список плагинов.
func (c *Client) ScmPlugins(ctx context.Context, project, integration string) (*ScmPluginsResult, error) {
	var result ScmPluginsResult
	err := c.get(ctx, "scm_plugins", scmPath(project, integration)+"/plugins", nil, &result)
	return &result, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, result any) error {
	return c.doJSON(ctx, endpoint, http.MethodGet, path, params, nil, result)
}

func (c *Client) post(ctx context.Context, endpoint, path string, body any, result any) error {
	return c.doJSON(ctx, endpoint, http.MethodPost, path, nil, body, result)
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, params url.Values, body any, result any) error {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = ContentTypeJSON
	}

	resp, err := c.Do(ctx, endpoint, method, path, params, bodyReader, contentType)
	if err != nil {
		return err
	}

	if err := resp.Err(); err != nil {
		return err
	}

	// 204 No Content или действие без ожидаемого ответа
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := resp.Decode(result); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return nil
}

// Do выполняет запрос к /api/{version}{path} и читает тело целиком.
// Не-2xx статус ошибкой не считается: это решает вызывающий.
func (c *Client) Do(ctx context.Context, endpoint, method, path string, params url.Values, body io.Reader, contentType string) (*Response, error) {
	target := fmt.Sprintf("%s/api/%d%s", c.baseURL, c.apiVersion, path)
	if len(params) > 0 {
		target = target + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", ContentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("X-Rundeck-Auth-Token", c.token)
	}

	logger := c.logger.With("endpoint", endpoint, "request_id", requestID)
	logger.Debug("api request", "method", method, "url", target)

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	c.metrics.ObserveRequest(endpoint, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	logger.Debug("api response", "status", httpResp.StatusCode, "bytes", len(data), "duration", time.Since(start))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Body:       data,
	}, nil
}

// seg экранирует сегмент пути.
func seg(s string) string {
	return url.PathEscape(s)
}
