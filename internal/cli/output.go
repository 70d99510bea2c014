package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/rd-cli/internal/config"
)

// Стили вывода. Применяются только при включённом цвете.
var (
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleValue   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Output управляет форматированием вывода CLI.
//
// Данные (Output, Print) идут в stdout в выбранном формате,
// сообщения (Info, Warning, Error) — в stderr. Это позволяет
// использовать pipe: rd scm status -p ops -i export --format json | jq .
type Output struct {
	format string
	color  bool
	w      io.Writer // stdout для данных
	errW   io.Writer // stderr для сообщений
}

// NewOutput создаёт Output для stdout/stderr.
func NewOutput(format string, color bool) *Output {
	return NewOutputTo(os.Stdout, os.Stderr, format, color)
}

// NewOutputTo создаёт Output с явными writer'ами.
func NewOutputTo(w, errW io.Writer, format string, color bool) *Output {
	if format == "" {
		format = config.FormatText
	}
	return &Output{
		format: format,
		color:  color && format == config.FormatText,
		w:      w,
		errW:   errW,
	}
}

// Structured возвращает true для json/yaml.
func (o *Output) Structured() bool {
	return o.format != config.FormatText
}

// Colored возвращает true, если вывод раскрашивается.
func (o *Output) Colored() bool {
	return o.color
}

// Writer возвращает writer для данных.
func (o *Output) Writer() io.Writer {
	return o.w
}

// Print выводит данные: таблицу или JSON/YAML в зависимости от формата.
func (o *Output) Print(headers []string, rows [][]string, data any) {
	switch o.format {
	case config.FormatJSON:
		o.JSON(data)
	case config.FormatYAML:
		o.YAML(data)
	default:
		o.Table(headers, rows)
	}
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	// Заголовки
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	// Разделитель
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	// Строки данных
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// YAML выводит данные в формате YAML.
func (o *Output) YAML(v any) {
	enc := yaml.NewEncoder(o.w)
	enc.SetIndent(2)
	enc.Encode(v)
	enc.Close()
}

// Output выводит строку, map или список в stdout в текущем формате.
func (o *Output) Output(v any) {
	switch o.format {
	case config.FormatJSON:
		o.JSON(v)
	case config.FormatYAML:
		o.YAML(v)
	default:
		io.WriteString(o.w, formatText(v))
	}
}

// Info выводит сообщение или map в stderr.
func (o *Output) Info(v any) {
	io.WriteString(o.errW, formatText(v))
}

// Warning выводит предупреждение в stderr.
func (o *Output) Warning(v any) {
	io.WriteString(o.errW, o.style(styleWarning, formatText(v)))
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, o.style(styleError, "Error: "+msg))
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, o.style(styleSuccess, msg))
}

// Highlight раскрашивает s как успех, если цвет включён.
func (o *Output) Highlight(s string) string {
	return o.style(styleSuccess, s)
}

// Colorize раскрашивает скалярные значения map (рекурсивно),
// если цвет включён. Иначе возвращает m как есть.
func (o *Output) Colorize(m map[string]any) map[string]any {
	if !o.color {
		return m
	}
	return colorizeMap(m, styleValue)
}

// StripANSI убирает ANSI-последовательности, если цвет выключен.
func (o *Output) StripANSI(s string) string {
	if o.color {
		return s
	}
	return ansi.Strip(s)
}

func (o *Output) style(st lipgloss.Style, s string) string {
	if !o.color {
		return s
	}
	// Стиль применяется построчно, чтобы перевод строки остался вне escape-последовательности.
	trimmed := strings.TrimSuffix(s, "\n")
	lines := strings.Split(trimmed, "\n")
	for i, l := range lines {
		lines[i] = st.Render(l)
	}
	out := strings.Join(lines, "\n")
	if len(trimmed) != len(s) {
		out += "\n"
	}
	return out
}

func colorizeMap(m map[string]any, st lipgloss.Style) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = colorizeValue(v, st)
	}
	return out
}

func colorizeValue(v any, st lipgloss.Style) any {
	switch val := v.(type) {
	case map[string]any:
		return colorizeMap(val, st)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = colorizeValue(item, st)
		}
		return out
	case nil:
		return nil
	default:
		return st.Render(fmt.Sprint(val))
	}
}

// --- Text format ---

// formatText форматирует значение для текстового вывода:
//   - строка — как есть
//   - map — "key: value" с отсортированными ключами, вложенные map с отступом
//   - список — элементы с "- "
func formatText(v any) string {
	var b strings.Builder
	writeText(&b, v, 0)
	return b.String()
}

func writeText(b *strings.Builder, v any, indent int) {
	pad := strings.Repeat("  ", indent)

	switch val := v.(type) {
	case nil:
		return
	case string:
		b.WriteString(pad + val + "\n")
		return
	case fmt.Stringer:
		b.WriteString(pad + val.String() + "\n")
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		values := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			ks := fmt.Sprint(k.Interface())
			keys = append(keys, ks)
			values[ks] = rv.MapIndex(k).Interface()
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := values[k]
			if isComposite(child) {
				b.WriteString(pad + k + ":\n")
				writeText(b, child, indent+1)
				continue
			}
			b.WriteString(pad + k + ": " + scalar(child) + "\n")
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i).Interface()
			if isComposite(item) {
				b.WriteString(pad + "-\n")
				writeText(b, item, indent+1)
				continue
			}
			b.WriteString(pad + "- " + scalar(item) + "\n")
		}
	case reflect.Pointer, reflect.Struct:
		// Структуры выводятся через их JSON-представление.
		data, err := json.Marshal(v)
		if err != nil {
			b.WriteString(pad + fmt.Sprint(v) + "\n")
			return
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			b.WriteString(pad + string(data) + "\n")
			return
		}
		writeText(b, generic, indent)
	default:
		b.WriteString(pad + scalar(v) + "\n")
	}
}

func isComposite(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	case reflect.Pointer:
		return !reflect.ValueOf(v).IsNil()
	default:
		return false
	}
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
