package domain

import (
	"fmt"
	"strings"
)

// Integration — направление SCM-синхронизации.
//
//   - import: из системы контроля версий в проект
//   - export: из проекта в систему контроля версий
type Integration string

const (
	IntegrationImport Integration = "import"
	IntegrationExport Integration = "export"
)

// Integrations — допустимые значения в порядке вывода в подсказках.
var Integrations = []Integration{IntegrationImport, IntegrationExport}

// ParseIntegration проверяет значение флага --integration.
// Регистр не нормализуется: "Export" — ошибка, как и на сервере.
func ParseIntegration(s string) (Integration, error) {
	for _, i := range Integrations {
		if string(i) == s {
			return i, nil
		}
	}
	return "", fmt.Errorf("%w: %q, must be one of: %s", ErrInvalidIntegration, s, integrationList())
}

// IsExport возвращает true для export.
func (i Integration) IsExport() bool {
	return i == IntegrationExport
}

// String возвращает строковое представление Integration.
func (i Integration) String() string {
	return string(i)
}

func integrationList() string {
	names := make([]string, len(Integrations))
	for i, v := range Integrations {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
