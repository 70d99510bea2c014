package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Ошибки клиента.
var (
	// ErrTransport — сетевая ошибка: соединение, таймаут, обрыв чтения.
	ErrTransport = errors.New("transport failure")

	// ErrDecode — тело ответа не удалось разобрать.
	ErrDecode = errors.New("failed to decode response")
)

// Error — не-2xx ответ сервера. Статус и сообщение сохраняются
// до границы процесса.
type Error struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: HTTP %d: %s", e.StatusCode, e.Message)
}

// errorBody — формат ошибок API.
type errorBody struct {
	Error     bool   `json:"error"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func newError(r *Response) *Error {
	msg := ""
	var eb errorBody
	if err := json.Unmarshal(r.Body, &eb); err == nil && eb.Message != "" {
		msg = eb.Message
	}
	if msg == "" {
		msg = r.StatusText()
	}
	return &Error{StatusCode: r.StatusCode, Message: msg, Body: r.Body}
}

// StatusText — текст статуса без кода: "Bad Request".
func (r *Response) StatusText() string {
	text := strings.TrimSpace(strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode)))
	if text == "" {
		return http.StatusText(r.StatusCode)
	}
	return text
}

// StatusCode возвращает HTTP-код из *Error в цепочке, иначе 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
