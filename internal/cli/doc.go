// Package cli реализует команды утилиты rd.
//
// # Обзор
//
// rd — клиент сервера заданий. Работает через HTTP API
// (internal/client), бизнес-логика вынесена в internal/stream
// и internal/scm; здесь только разбор флагов и вывод.
//
// # Ключевые компоненты
//
// ## Env
//
// Зависимости команд: Client, Output, проект по умолчанию,
// Notifier (опционально) и Metrics. Создаётся в cmd/rd после
// разбора PersistentFlags и передаётся в команды замыканием envFn.
//
// ## Output
//
// Форматирование вывода. Форматы: text (по умолчанию), json, yaml.
// Данные выводятся в stdout, сообщения (Info/Warning/Error) — в stderr.
// Цвет (lipgloss) включается только для text.
//
//	rd scm status -p demo -i export --format json | jq .synchState
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - executions: kill, follow, list
//   - scm: config, setup, status, enable, disable, setupinputs, inputs, perform, plugins
//
// Отрицательный результат команды (follow не succeeded, status не CLEAN,
// perform отклонён) возвращается как ErrUnsuccessful: код выхода 1
// без сообщения об ошибке.
package cli
