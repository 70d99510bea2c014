package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shaiso/rd-cli/internal/client"
	"github.com/shaiso/rd-cli/internal/domain"
	"github.com/shaiso/rd-cli/internal/telemetry"
)

const (
	// DefaultInterval — пауза между запросами вывода.
	DefaultInterval = 2 * time.Second

	// DefaultMaxLines — размер порции при продолжении с курсора.
	DefaultMaxLines = 500
)

// OutputFetcher — источник порций вывода. Реализуется *client.Client.
type OutputFetcher interface {
	ExecutionOutput(ctx context.Context, id string, q client.OutputQuery) (*client.ExecOutput, error)
}

// Sleeper приостанавливает выполнение на d. Возвращает ошибку,
// если ctx отменён раньше.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep — Sleeper на реальном таймере.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options — параметры follow.
type Options struct {
	// Restart — читать вывод с начала (offset=0, lastmod=0). Tail игнорируется.
	Restart bool

	// Tail — сколько последних строк запросить в первой порции.
	Tail int64

	// MaxLines — ограничение порции при продолжении. 0 — DefaultMaxLines.
	MaxLines int

	// Progress — печатать "." на каждую непустую порцию.
	Progress bool

	// Quiet — не печатать строки лога.
	Quiet bool
}

// Cursor — позиция продолжения, выданная сервером.
type Cursor struct {
	Offset       int64
	LastModified int64
}

// Result — итог follow.
type Result struct {
	// ID — идентификатор execution.
	ID string

	// State — последнее известное состояние (пусто, если не было ни одной порции).
	State domain.ExecState

	// Completed — сервер сообщил completed=true.
	Completed bool

	// Interrupted — follow прерван отменой контекста.
	Interrupted bool

	// Cursor — позиция после последней порции.
	Cursor Cursor

	// Batches и Lines — сколько получено порций и строк.
	Batches int
	Lines   int
}

// Succeeded возвращает true только если вывод дочитан до конца
// и execution завершился успешно.
func (r Result) Succeeded() bool {
	return r.Completed && !r.Interrupted && r.State.Succeeded()
}

// Streamer — follow вывода execution.
type Streamer struct {
	fetcher  OutputFetcher
	out      io.Writer
	interval time.Duration
	sleep    Sleeper
	filter   func(string) string
	metrics  *telemetry.Metrics
}

// Option настраивает Streamer.
type Option func(*Streamer)

// WithInterval задаёт паузу между запросами.
func WithInterval(d time.Duration) Option {
	return func(s *Streamer) { s.interval = d }
}

// WithSleeper подменяет ожидание (для тестов).
func WithSleeper(fn Sleeper) Option {
	return func(s *Streamer) { s.sleep = fn }
}

// WithLineFilter преобразует каждую строку перед печатью
// (например, убирает ANSI-последовательности из вывода job).
func WithLineFilter(fn func(string) string) Option {
	return func(s *Streamer) { s.filter = fn }
}

// WithMetrics включает учёт порций.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Streamer) { s.metrics = m }
}

// New создаёт Streamer, пишущий вывод в out.
func New(fetcher OutputFetcher, out io.Writer, opts ...Option) *Streamer {
	s := &Streamer{
		fetcher:  fetcher,
		out:      out,
		interval: DefaultInterval,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FirstQuery возвращает запрос первой порции.
func FirstQuery(opts Options) client.OutputQuery {
	if opts.Restart {
		return client.ResumeQuery(0, 0, maxLines(opts))
	}
	return client.TailQuery(opts.Tail)
}

func maxLines(opts Options) int {
	if opts.MaxLines > 0 {
		return opts.MaxLines
	}
	return DefaultMaxLines
}

// Follow читает вывод execution id до завершения или отмены ctx.
func (s *Streamer) Follow(ctx context.Context, id string, opts Options) (Result, error) {
	logger := telemetry.WithExecutionID(telemetry.FromContext(ctx), id)
	result := Result{ID: id}

	query := FirstQuery(opts)
	marked := false
	defer func() {
		// Точки прогресса пишутся без перевода строки: завершаем строку.
		if marked {
			io.WriteString(s.out, "\n")
		}
	}()

	for {
		batch, err := s.fetcher.ExecutionOutput(ctx, id, query)
		if err != nil {
			// Запрос оборван той же отменой, что и пауза: это не ошибка.
			if ctx.Err() != nil && errors.Is(err, context.Canceled) {
				logger.Debug("follow interrupted during fetch")
				result.Interrupted = true
				return result, nil
			}
			return result, fmt.Errorf("fetch output of execution %s: %w", id, err)
		}

		result.Batches++
		result.Lines += len(batch.Entries)
		result.State = batch.ExecState
		result.Completed = batch.Completed
		result.Cursor = Cursor{Offset: int64(batch.Offset), LastModified: int64(batch.LastModified)}
		s.metrics.ObserveBatch(len(batch.Entries))

		if err := s.render(batch.Entries, opts); err != nil {
			return result, fmt.Errorf("write output: %w", err)
		}
		marked = marked || (opts.Progress && len(batch.Entries) > 0)

		logger.Debug("output batch",
			"entries", len(batch.Entries),
			"offset", result.Cursor.Offset,
			"completed", batch.Completed,
			"state", batch.ExecState,
		)

		if batch.Completed {
			if !batch.ExecState.IsTerminal() {
				logger.Warn("output completed but execution state is not terminal", "state", batch.ExecState)
			}
			return result, nil
		}

		if err := s.sleep(ctx, s.interval); err != nil {
			logger.Debug("follow interrupted", "error", err)
			result.Interrupted = true
			return result, nil
		}

		query = client.ResumeQuery(result.Cursor.Offset, result.Cursor.LastModified, maxLines(opts))
	}
}

// render печатает порцию. Progress заменяет строки маркером:
// одна точка на каждую непустую порцию, независимо от Quiet.
// Строки печатаются, только если не задан ни Quiet, ни Progress.
func (s *Streamer) render(entries []client.LogEntry, opts Options) error {
	if !opts.Quiet && !opts.Progress {
		for _, e := range entries {
			line := e.Log
			if s.filter != nil {
				line = s.filter(line)
			}
			if _, err := fmt.Fprintln(s.out, line); err != nil {
				return err
			}
		}
	}
	if opts.Progress && len(entries) > 0 {
		if _, err := io.WriteString(s.out, "."); err != nil {
			return err
		}
	}
	return nil
}
