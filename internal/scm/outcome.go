package scm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shaiso/rd-cli/internal/client"
)

// OutcomeKind — состояние ответа setup/perform.
type OutcomeKind int

const (
	// OutcomeOK — 2xx, действие выполнено (Result.Success может быть false).
	OutcomeOK OutcomeKind = iota

	// OutcomeValidation — 400 с телом ScmActionResult: сервер отклонил ввод.
	OutcomeValidation
)

// String возвращает имя состояния.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeValidation:
		return "validation"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome — разобранный ответ setup/perform.
// Третье состояние (транспортная ошибка) — error рядом с Outcome.
type Outcome struct {
	Kind OutcomeKind

	// Name — имя действия для сообщений: "Action commit", "Setup".
	Name string

	Result client.ScmActionResult

	// Body — тело ответа целиком, включая поля вне ScmActionResult.
	Body map[string]any
}

// Succeeded возвращает true, если действие выполнено успешно.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeOK && o.Result.Success
}

// DecodeOutcome разбирает сырой ответ. name используется в сообщениях.
//
// Порядок важен: 400 проверяется раньше общей проверки статуса.
func DecodeOutcome(resp *client.Response, name string) (Outcome, error) {
	out := Outcome{Name: name}

	if resp.StatusCode == http.StatusBadRequest {
		result, body, ok := decodeActionResult(resp.Body)
		if !ok {
			return out, fmt.Errorf("%s failed: %w: %w", name, ErrValidationBody, &client.Error{
				StatusCode: resp.StatusCode,
				Message:    resp.StatusText(),
				Body:       resp.Body,
			})
		}
		out.Kind = OutcomeValidation
		out.Result = result
		out.Body = body
		return out, nil
	}

	if err := resp.Err(); err != nil {
		return out, fmt.Errorf("%s failed: %w", name, err)
	}

	result, body, ok := decodeActionResult(resp.Body)
	if !ok {
		return out, fmt.Errorf("%s: %w: HTTP %d", name, client.ErrDecode, resp.StatusCode)
	}
	out.Kind = OutcomeOK
	out.Result = result
	out.Body = body
	return out, nil
}

// decodeActionResult разбирает тело как ScmActionResult и как map.
// Пустое тело и null считаются неразбираемыми.
func decodeActionResult(data []byte) (client.ScmActionResult, map[string]any, bool) {
	var result client.ScmActionResult
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, nil, false
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return result, nil, false
	}
	return result, body, true
}
