// Package scm реализует SCM-операции проекта поверх API.
//
// # Обзор
//
// Каждая операция работает с Target — проектом и направлением
// интеграции (import/export). Target проверяется до сетевых вызовов.
//
// ## Выбор items
//
// SelectItems — чистая функция: по списку items из ActionInputs и
// флагам Selection вычисляет items, deletedItems и deletedJobs для
// perform. Export и import используют один предикат над общим
// представлением Item.
//
// ## Outcome
//
// Ответ setup/perform разбирается в три состояния:
//   - OutcomeOK — 2xx, тело ScmActionResult
//   - OutcomeValidation — 400, тело разобрано как ScmActionResult
//   - ошибка — 400 без разбираемого тела или любой другой не-2xx
//
// Проверка на 400 идёт до общей проверки статуса, иначе структура
// ошибок валидации теряется.
package scm
