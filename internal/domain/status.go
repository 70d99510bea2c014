package domain

// ExecState — состояние execution, как его возвращает сервер в execState.
//
// Жизненный цикл:
//
//	scheduled → running → succeeded
//	                    ↘ failed / failed-with-retry / timedout
//	          (или) → aborted (из scheduled или running)
type ExecState string

const (
	// ExecStateScheduled — execution запланирован, но ещё не запущен.
	ExecStateScheduled ExecState = "scheduled"

	// ExecStateRunning — execution в процессе выполнения.
	ExecStateRunning ExecState = "running"

	// ExecStateSucceeded — execution успешно завершён.
	ExecStateSucceeded ExecState = "succeeded"

	// ExecStateFailed — execution завершился с ошибкой.
	ExecStateFailed ExecState = "failed"

	// ExecStateAborted — execution прерван пользователем.
	ExecStateAborted ExecState = "aborted"

	// ExecStateTimedOut — execution прерван по таймауту.
	ExecStateTimedOut ExecState = "timedout"

	// ExecStateFailedWithRetry — execution упал, сервер запустил повтор.
	ExecStateFailedWithRetry ExecState = "failed-with-retry"
)

// IsTerminal возвращает true, если состояние финальное.
func (s ExecState) IsTerminal() bool {
	switch s {
	case ExecStateSucceeded, ExecStateFailed, ExecStateAborted,
		ExecStateTimedOut, ExecStateFailedWithRetry:
		return true
	default:
		return false
	}
}

// Succeeded возвращает true только для succeeded.
func (s ExecState) Succeeded() bool {
	return s == ExecStateSucceeded
}

// String возвращает строковое представление ExecState.
func (s ExecState) String() string {
	return string(s)
}

// SynchState — состояние синхронизации SCM-интеграции проекта.
type SynchState string

const (
	SynchStateClean         SynchState = "CLEAN"
	SynchStateRefreshNeeded SynchState = "REFRESH_NEEDED"
	SynchStateExportNeeded  SynchState = "EXPORT_NEEDED"
	SynchStateImportNeeded  SynchState = "IMPORT_NEEDED"
	SynchStateDeleteNeeded  SynchState = "DELETE_NEEDED"
	SynchStateCreateNeeded  SynchState = "CREATE_NEEDED"
	SynchStateLoading       SynchState = "LOADING"
	SynchStateUnknown       SynchState = "UNKNOWN"
)

// IsClean возвращает true, если синхронизация не требуется.
func (s SynchState) IsClean() bool {
	return s == SynchStateClean
}
