package domain

import "errors"

// Ошибки пользовательского ввода. Обнаруживаются до сетевых вызовов
// и не повторяются.
var (
	// ErrInvalidIntegration — --integration не import/export.
	ErrInvalidIntegration = errors.New("invalid integration")

	// ErrInvalidProjectName — имя проекта не соответствует грамматике сервера.
	ErrInvalidProjectName = errors.New("invalid project name")

	// ErrProjectRequired — проект не задан ни флагом, ни окружением.
	ErrProjectRequired = errors.New("project is required (-p or RD_PROJECT)")

	// ErrMissingID — не задан обязательный идентификатор.
	ErrMissingID = errors.New("missing required identifier")

	// ErrInvalidField — поле --field не в формате KEY=VALUE.
	ErrInvalidField = errors.New("invalid field")
)

// IsInputError возвращает true для ошибок пользовательского ввода.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidIntegration) ||
		errors.Is(err, ErrInvalidProjectName) ||
		errors.Is(err, ErrProjectRequired) ||
		errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrInvalidField)
}
