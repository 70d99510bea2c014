package cli

import (
	"context"
	"errors"

	"github.com/shaiso/rd-cli/internal/client"
	"github.com/shaiso/rd-cli/internal/mq"
	"github.com/shaiso/rd-cli/internal/stream"
	"github.com/shaiso/rd-cli/internal/telemetry"
)

// ErrUnsuccessful — команда отработала, но её результат отрицательный
// (follow не succeeded, status не CLEAN, perform отклонён).
// Процесс завершается с ненулевым кодом без сообщения об ошибке.
var ErrUnsuccessful = errors.New("command was not successful")

// Notifier публикует события команд. Реализуется *mq.Publisher.
type Notifier interface {
	PublishExecutionFinished(ctx context.Context, payload mq.ExecutionFinishedPayload) error
	PublishScmAction(ctx context.Context, payload mq.ScmActionPayload) error
}

// Env — зависимости команд. Создаётся после разбора глобальных флагов.
type Env struct {
	Client *client.Client
	Out    *Output

	// DefaultProject — проект, если -p не задан (RD_PROJECT или конфиг).
	DefaultProject string

	// Notifier — nil, если публикация событий выключена.
	Notifier Notifier

	Metrics *telemetry.Metrics

	// Sleeper — пауза follow; nil — реальный таймер.
	Sleeper stream.Sleeper
}

// notify вызывает fn, если Notifier задан. Ошибка только логируется:
// результат команды от публикации не зависит.
func (e *Env) notify(ctx context.Context, fn func(Notifier) error) {
	if e.Notifier == nil {
		return
	}
	if err := fn(e.Notifier); err != nil {
		telemetry.FromContext(ctx).Warn("failed to publish event", "error", err)
	}
}

// result переводит bool-результат команды в ошибку.
func result(ok bool) error {
	if ok {
		return nil
	}
	return ErrUnsuccessful
}
