// Package telemetry обеспечивает наблюдаемость CLI.
//
// Включает:
//   - logging.go — structured logging через slog (в stderr, stdout занят выводом команд)
//   - metrics.go — Prometheus метрики вызовов API и стриминга
//
// CLI живёт одну команду, поэтому метрики не отдаются по HTTP,
// а выгружаются в файл для node_exporter textfile collector.
package telemetry
