package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestOutput(format string, color bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return NewOutputTo(&stdout, &stderr, format, color), &stdout, &stderr
}

func TestOutput_TextMap(t *testing.T) {
	out, stdout, _ := newTestOutput("text", false)

	out.Output(map[string]any{
		"success": false,
		"message": "bad input",
		"validationErrors": map[string]any{
			"url": "required",
		},
	})

	assert.Equal(t, "message: bad input\nsuccess: false\nvalidationErrors:\n  url: required\n", stdout.String())
}

func TestOutput_TextList(t *testing.T) {
	out, stdout, _ := newTestOutput("", false)

	out.Output([]string{"a", "b"})

	assert.Equal(t, "- a\n- b\n", stdout.String())
}

func TestOutput_JSON(t *testing.T) {
	out, stdout, _ := newTestOutput("json", true)

	assert.True(t, out.Structured())
	assert.False(t, out.Colored(), "color is for text only")

	out.Output(map[string]any{"synchState": "CLEAN"})

	var got map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "CLEAN", got["synchState"])
}

func TestOutput_YAML(t *testing.T) {
	out, stdout, _ := newTestOutput("yaml", false)

	out.Print([]string{"TYPE"}, [][]string{{"git-export"}}, []map[string]any{{"type": "git-export"}})

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "git-export", got[0]["type"])
}

func TestOutput_Table(t *testing.T) {
	out, stdout, _ := newTestOutput("text", false)

	out.Print([]string{"TYPE", "ENABLED"}, [][]string{{"git-export", "true"}}, nil)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TYPE"))
	assert.True(t, strings.HasPrefix(lines[1], "----"))
	assert.Contains(t, lines[2], "git-export")
}

func TestOutput_MessagesGoToStderr(t *testing.T) {
	out, stdout, stderr := newTestOutput("text", false)

	out.Info("Setup was successful.")
	out.Warning("Result: nothing to do")
	out.Error("Action commit failed")

	assert.Empty(t, stdout.String())
	assert.Equal(t, "Setup was successful.\nResult: nothing to do\nError: Action commit failed\n", stderr.String())
}

func TestOutput_Colorize(t *testing.T) {
	body := map[string]any{
		"message": "invalid",
		"validationErrors": map[string]any{
			"dir": "required",
		},
		"list": []any{"x"},
	}

	t.Run("disabled", func(t *testing.T) {
		out, _, _ := newTestOutput("text", false)
		assert.Equal(t, body, out.Colorize(body))
	})

	t.Run("enabled", func(t *testing.T) {
		out, stdout, _ := newTestOutput("text", true)
		colored := out.Colorize(body)

		out.Output(colored)

		// Без escape-последовательностей вывод совпадает с обычным.
		assert.Equal(t, "list:\n  - x\nmessage: invalid\nvalidationErrors:\n  dir: required\n", ansi.Strip(stdout.String()))
		assert.Equal(t, "invalid", body["message"], "source map is not modified")
	})
}

func TestOutput_StripANSI(t *testing.T) {
	colored := "\x1b[31mred\x1b[0m"

	plain, _, _ := newTestOutput("text", false)
	assert.Equal(t, "red", plain.StripANSI(colored))

	color, _, _ := newTestOutput("text", true)
	assert.Equal(t, colored, color.StripANSI(colored))
}
