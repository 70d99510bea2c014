package scm

import "errors"

// Ошибки SCM-операций.
var (
	// ErrConfigFile — файл конфигурации не читается.
	ErrConfigFile = errors.New("cannot read config file")

	// ErrValidationBody — 400 без тела в формате ScmActionResult.
	ErrValidationBody = errors.New("undecodable validation response")
)
