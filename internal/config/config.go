// Package config загружает настройки CLI: YAML-файл, затем переменные
// окружения. Флаги командной строки применяются поверх в cmd/rd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAPIVersion — версия API сервера по умолчанию.
const DefaultAPIVersion = 41

// Форматы вывода.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config — настройки CLI.
type Config struct {
	// URL — базовый адрес сервера, без /api.
	URL string `yaml:"url"`

	// Token — API-токен (заголовок X-Rundeck-Auth-Token).
	Token string `yaml:"token"`

	// APIVersion — номер версии API в пути /api/{version}.
	APIVersion int `yaml:"api_version"`

	// Project — проект по умолчанию, если -p не задан.
	Project string `yaml:"project"`

	// Color — раскрашивать ли вывод.
	Color bool `yaml:"color"`

	// Format — text, json или yaml.
	Format string `yaml:"format"`

	// NotifyURL — AMQP URL для публикации событий. Пусто — отключено.
	NotifyURL string `yaml:"notify_url"`

	// MetricsFile — путь для выгрузки метрик в формате textfile collector.
	MetricsFile string `yaml:"metrics_file"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		URL:        "http://localhost:4440",
		APIVersion: DefaultAPIVersion,
		Color:      true,
		Format:     FormatText,
	}
}

// DefaultPath возвращает путь к файлу конфигурации:
// $RD_CONFIG, иначе ~/.rd/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("RD_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rd", "config.yaml")
}

// Load читает файл (отсутствие файла не ошибка), применяет окружение
// и валидирует результат.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// ApplyEnv переопределяет поля из переменных окружения RD_*.
// lookup передаётся явно, чтобы тесты не трогали os.Environ.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("RD_URL"); ok && v != "" {
		c.URL = v
	}
	if v, ok := lookup("RD_TOKEN"); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup("RD_API_VERSION"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RD_API_VERSION: %w", err)
		}
		c.APIVersion = n
	}
	if v, ok := lookup("RD_PROJECT"); ok && v != "" {
		c.Project = v
	}
	if v, ok := lookup("RD_COLOR"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RD_COLOR: %w", err)
		}
		c.Color = b
	}
	if _, ok := lookup("NO_COLOR"); ok {
		c.Color = false
	}
	if v, ok := lookup("RD_FORMAT"); ok && v != "" {
		c.Format = v
	}
	if v, ok := lookup("RD_NOTIFY_URL"); ok {
		c.NotifyURL = v
	}
	if v, ok := lookup("RD_METRICS_FILE"); ok {
		c.MetricsFile = v
	}
	return nil
}

// ValidationError содержит все найденные проблемы конфигурации.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate проверяет конфигурацию и возвращает список ошибок (пустой, если всё ок).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.URL == "" {
		errs = append(errs, "url is required")
	} else if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		errs = append(errs, fmt.Sprintf("url %q must start with http:// or https://", cfg.URL))
	}

	if cfg.APIVersion < 11 {
		errs = append(errs, fmt.Sprintf("api_version %d is not supported, minimum is 11", cfg.APIVersion))
	}

	switch cfg.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Sprintf("format %q must be one of: text, json, yaml", cfg.Format))
	}

	if cfg.NotifyURL != "" && !strings.HasPrefix(cfg.NotifyURL, "amqp://") && !strings.HasPrefix(cfg.NotifyURL, "amqps://") {
		errs = append(errs, fmt.Sprintf("notify_url %q must be an amqp:// or amqps:// URL", cfg.NotifyURL))
	}

	return errs
}
