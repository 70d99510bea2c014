// Package stream реализует follow вывода execution.
//
// Streamer опрашивает сервер порциями: первая порция — с начала
// (restart) или последние N строк (tail), следующие — с курсора
// offset/lastModified, который вернул сервер в предыдущей порции.
// Между порциями — пауза (2 секунды), прерываемая отменой контекста.
//
//	s := stream.New(client, os.Stdout)
//	res, err := s.Follow(ctx, "42", stream.Options{Restart: true, MaxLines: 500})
//	if res.Succeeded() { ... }
//
// Отмена контекста не ошибка: Follow возвращает последнее известное
// состояние. Ошибки API не повторяются и возвращаются как есть.
package stream
