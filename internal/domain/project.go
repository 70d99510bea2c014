package domain

import (
	"fmt"
	"regexp"
)

// projectNamePattern — грамматика имени проекта на сервере.
var projectNamePattern = regexp.MustCompile(`^[-_a-zA-Z0-9+][-._a-zA-Z0-9+]*$`)

// ValidateProjectName проверяет имя проекта до любого обращения к API.
func ValidateProjectName(name string) error {
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q, expected pattern %s", ErrInvalidProjectName, name, projectNamePattern)
	}
	return nil
}

// ResolveProject возвращает эффективный проект: явный флаг,
// иначе значение по умолчанию (из окружения или конфига).
//
// Явно заданное имя валидируется, значение по умолчанию — тоже,
// чтобы опечатка в RD_PROJECT не превращалась в 404 от сервера.
func ResolveProject(explicit, fallback string) (string, error) {
	project := explicit
	if project == "" {
		project = fallback
	}
	if project == "" {
		return "", ErrProjectRequired
	}
	if err := ValidateProjectName(project); err != nil {
		return "", err
	}
	return project, nil
}
