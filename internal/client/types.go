package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shaiso/rd-cli/internal/domain"
)

// --- Scalar helpers ---

// Cursor — числовой токен сервера (offset, lastModified).
// Сервер отдаёт его то числом, то строкой, поэтому принимаем оба варианта.
type Cursor int64

// UnmarshalJSON принимает 123, "123" и null.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	if s == "" {
		*c = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid cursor %s: %w", data, err)
	}
	*c = Cursor(n)
	return nil
}

// ID — идентификатор, который сервер отдаёт числом или строкой.
type ID string

// UnmarshalJSON принимает 42 и "42".
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// --- Executions ---

// LogEntry — одна строка вывода execution.
type LogEntry struct {
	Time         string `json:"time,omitempty"`
	AbsoluteTime string `json:"absolute_time,omitempty"`
	Level        string `json:"level,omitempty"`
	Log          string `json:"log"`
	User         string `json:"user,omitempty"`
	Node         string `json:"node,omitempty"`
	StepCtx      string `json:"stepctx,omitempty"`
}

// ExecOutput — порция вывода execution с курсором для продолжения.
type ExecOutput struct {
	ID             ID               `json:"id"`
	Offset         Cursor           `json:"offset"`
	LastModified   Cursor           `json:"lastModified"`
	Completed      bool             `json:"completed"`
	ExecCompleted  bool             `json:"execCompleted"`
	HasFailedNodes bool             `json:"hasFailedNodes"`
	ExecState      domain.ExecState `json:"execState"`
	ExecDuration   int64            `json:"execDuration"`
	PercentLoaded  float64          `json:"percentLoaded"`
	TotalSize      int64            `json:"totalSize"`
	Entries        []LogEntry       `json:"entries"`
}

// OutputQuery — параметры запроса вывода.
//
// Два режима: Tail (последние LastLines строк) или продолжение
// с курсора Offset/LastModified не более MaxLines строк.
type OutputQuery struct {
	Tail         bool
	LastLines    int64
	Offset       int64
	LastModified int64
	MaxLines     int
}

// TailQuery — запрос последних lines строк.
func TailQuery(lines int64) OutputQuery {
	return OutputQuery{Tail: true, LastLines: lines}
}

// ResumeQuery — запрос с курсора.
func ResumeQuery(offset, lastModified int64, maxLines int) OutputQuery {
	return OutputQuery{Offset: offset, LastModified: lastModified, MaxLines: maxLines}
}

// DateInfo — дата в формате сервера.
type DateInfo struct {
	Unixtime int64  `json:"unixtime"`
	Date     string `json:"date"`
}

// JobItem — краткое описание job в execution.
type JobItem struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group,omitempty"`
	Project     string `json:"project,omitempty"`
	Description string `json:"description,omitempty"`
	Href        string `json:"href,omitempty"`
	Permalink   string `json:"permalink,omitempty"`
}

// Execution — execution из API.
type Execution struct {
	ID              ID        `json:"id"`
	Href            string    `json:"href,omitempty"`
	Permalink       string    `json:"permalink,omitempty"`
	Status          string    `json:"status"`
	Project         string    `json:"project"`
	User            string    `json:"user,omitempty"`
	ServerUUID      string    `json:"serverUUID,omitempty"`
	DateStarted     *DateInfo `json:"date-started,omitempty"`
	DateEnded       *DateInfo `json:"date-ended,omitempty"`
	Job             *JobItem  `json:"job,omitempty"`
	Description     string    `json:"description,omitempty"`
	Argstring       string    `json:"argstring,omitempty"`
	SuccessfulNodes []string  `json:"successfulNodes,omitempty"`
	FailedNodes     []string  `json:"failedNodes,omitempty"`
}

// BasicString — однострочное описание: [id] description <permalink>.
func (e *Execution) BasicString() string {
	return fmt.Sprintf("[%s] %s <%s>", e.ID, e.Description, e.Permalink)
}

// StatusString — [id] status.
func (e *Execution) StatusString() string {
	return fmt.Sprintf("[%s] %s", e.ID, e.Status)
}

// Paging — параметры страницы списка.
type Paging struct {
	Count  int `json:"count"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Max    int `json:"max"`
}

// ExecutionList — страница executions.
type ExecutionList struct {
	Paging     Paging      `json:"paging"`
	Executions []Execution `json:"executions"`
}

// AbortResult — ответ на abort.
type AbortResult struct {
	Abort struct {
		Status string `json:"status"`
		Reason string `json:"reason,omitempty"`
	} `json:"abort"`
	Execution *Execution `json:"execution,omitempty"`
}

// Статусы AbortResult.Abort.Status.
const (
	AbortStatusPending = "pending"
	AbortStatusAborted = "aborted"
	AbortStatusFailed  = "failed"
)

// --- SCM ---

// ScmConfig — конфигурация SCM-плагина проекта.
type ScmConfig struct {
	Project     string         `json:"project"`
	Type        string         `json:"type"`
	Integration string         `json:"integration"`
	Enabled     bool           `json:"enabled"`
	Config      map[string]any `json:"config"`
}

// ScmActionResult — результат setup или perform.
type ScmActionResult struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message,omitempty"`
	NextAction       string            `json:"nextAction,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// ScmProjectStatus — состояние синхронизации проекта.
type ScmProjectStatus struct {
	Actions     []string          `json:"actions,omitempty"`
	Integration string            `json:"integration"`
	Message     string            `json:"message,omitempty"`
	Project     string            `json:"project"`
	SynchState  domain.SynchState `json:"synchState"`
}

// ToMap — представление для вывода.
func (s *ScmProjectStatus) ToMap() map[string]any {
	m := map[string]any{
		"project":     s.Project,
		"integration": s.Integration,
		"synchState":  string(s.SynchState),
	}
	if len(s.Actions) > 0 {
		m["actions"] = s.Actions
	}
	if s.Message != "" {
		m["message"] = s.Message
	}
	return m
}

// ScmInputField — описание параметра, который нужен плагину или действию.
type ScmInputField struct {
	Name             string         `json:"name"`
	Title            string         `json:"title,omitempty"`
	Description      string         `json:"description,omitempty"`
	Type             string         `json:"type"`
	DefaultValue     string         `json:"defaultValue,omitempty"`
	Required         bool           `json:"required"`
	Scope            string         `json:"scope,omitempty"`
	Values           []string       `json:"values,omitempty"`
	RenderingOptions map[string]any `json:"renderingOptions,omitempty"`
}

// AsMap — представление для вывода.
func (f *ScmInputField) AsMap() map[string]any {
	m := map[string]any{
		"name":        f.Name,
		"title":       f.Title,
		"description": f.Description,
		"type":        f.Type,
		"required":    f.Required,
	}
	if f.DefaultValue != "" {
		m["defaultValue"] = f.DefaultValue
	}
	if len(f.Values) > 0 {
		m["values"] = f.Values
	}
	return m
}

// ScmSetupInputs — поля настройки плагина.
type ScmSetupInputs struct {
	Integration string          `json:"integration"`
	Type        string          `json:"type"`
	Fields      []ScmInputField `json:"fields"`
}

// ScmJobRef — job, связанный с SCM item.
type ScmJobRef struct {
	JobID     string `json:"jobId"`
	JobName   string `json:"jobName,omitempty"`
	GroupPath string `json:"groupPath,omitempty"`
}

// ScmExportItem — изменённый ресурс для export.
type ScmExportItem struct {
	ItemID     string     `json:"itemId"`
	OriginalID string     `json:"originalId,omitempty"`
	Status     string     `json:"status,omitempty"`
	Renamed    bool       `json:"renamed"`
	Deleted    bool       `json:"deleted"`
	Job        *ScmJobRef `json:"job,omitempty"`
}

// AsMap — представление для вывода.
func (i *ScmExportItem) AsMap() map[string]any {
	m := map[string]any{
		"itemId":  i.ItemID,
		"deleted": i.Deleted,
		"renamed": i.Renamed,
	}
	if i.OriginalID != "" {
		m["originalId"] = i.OriginalID
	}
	if i.Status != "" {
		m["status"] = i.Status
	}
	if i.Job != nil {
		m["job"] = jobMap(i.Job)
	}
	return m
}

// ScmImportItem — входящий ресурс для import.
type ScmImportItem struct {
	ItemID  string     `json:"itemId"`
	Tracked bool       `json:"tracked"`
	Deleted bool       `json:"deleted"`
	Status  string     `json:"status,omitempty"`
	Job     *ScmJobRef `json:"job,omitempty"`
}

// AsMap — представление для вывода.
func (i *ScmImportItem) AsMap() map[string]any {
	m := map[string]any{
		"itemId":  i.ItemID,
		"tracked": i.Tracked,
		"deleted": i.Deleted,
	}
	if i.Status != "" {
		m["status"] = i.Status
	}
	if i.Job != nil {
		m["job"] = jobMap(i.Job)
	}
	return m
}

func jobMap(j *ScmJobRef) map[string]any {
	m := map[string]any{"jobId": j.JobID}
	if j.JobName != "" {
		m["jobName"] = j.JobName
	}
	if j.GroupPath != "" {
		m["groupPath"] = j.GroupPath
	}
	return m
}

// ScmActionInputs — описание действия: поля и items.
// Заполнен ExportItems или ImportItems, в зависимости от integration.
type ScmActionInputs struct {
	ActionID    string          `json:"actionId"`
	Integration string          `json:"integration"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Fields      []ScmInputField `json:"fields"`
	ImportItems []ScmImportItem `json:"importItems,omitempty"`
	ExportItems []ScmExportItem `json:"exportItems,omitempty"`
}

// ScmActionPerform — тело запроса perform.
type ScmActionPerform struct {
	Input       map[string]string `json:"input"`
	Items       []string          `json:"items"`
	Jobs        []string          `json:"jobs"`
	Deleted     []string          `json:"deleted"`
	DeletedJobs []string          `json:"deletedJobs"`
}

// ScmPlugin — описание SCM-плагина.
type ScmPlugin struct {
	Type        string `json:"type"`
	Configured  bool   `json:"configured"`
	Enabled     bool   `json:"enabled"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ToMap — представление для вывода.
func (p *ScmPlugin) ToMap() map[string]any {
	return map[string]any{
		"type":        p.Type,
		"configured":  p.Configured,
		"enabled":     p.Enabled,
		"title":       p.Title,
		"description": p.Description,
	}
}

// ScmPluginsResult — список плагинов интеграции.
type ScmPluginsResult struct {
	Integration string      `json:"integration"`
	Plugins     []ScmPlugin `json:"plugins"`
}
