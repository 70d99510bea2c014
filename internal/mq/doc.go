// Package mq публикует события CLI в RabbitMQ.
//
// Структура:
//   - connection.go — соединение и канал (без reconnect: CLI живёт одну команду)
//   - topology.go   — объявление exchange
//   - publisher.go  — публикация событий
//
// Типы сообщений:
//   - execution.finished    — follow дочитал вывод execution до конца
//   - scm.action.performed  — выполнен setup или perform SCM
//
// Exchanges:
//   - rd.events (topic) — routing key совпадает с типом сообщения
//
// Публикация включается через notify_url / RD_NOTIFY_URL. Ошибка
// публикации не меняет результат команды, только логируется.
package mq
