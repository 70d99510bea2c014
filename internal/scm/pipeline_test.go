package scm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/rd-cli/internal/client"
	"github.com/shaiso/rd-cli/internal/domain"
)

// fakeServer — httptest-сервер с маршрутами и счётчиком запросов.
type fakeServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newFakeServer(t *testing.T, routes map[string]http.HandlerFunc) (*fakeServer, *Pipeline) {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.calls.Add(1)
		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fs.Close)

	c := client.New(client.Options{URL: fs.URL, APIVersion: 41})
	return fs, NewPipeline(c)
}

func jsonHandler(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		io.WriteString(w, body)
	}
}

func TestNewTarget(t *testing.T) {
	tgt, err := NewTarget("", "ops", "export")
	require.NoError(t, err)
	assert.Equal(t, Target{Project: "ops", Integration: domain.IntegrationExport}, tgt)

	tgt, err = NewTarget("web", "ops", "import")
	require.NoError(t, err)
	assert.Equal(t, "web", tgt.Project)

	_, err = NewTarget("web", "", "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidIntegration)

	_, err = NewTarget("bad name", "", "import")
	assert.ErrorIs(t, err, domain.ErrInvalidProjectName)

	_, err = NewTarget("", "", "import")
	assert.ErrorIs(t, err, domain.ErrProjectRequired)
}

func TestPerform_ExportAllItems(t *testing.T) {
	var got client.ScmActionPerform
	fs, p := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/41/project/ops/scm/export/action/project-commit/input": jsonHandler(200, `{
			"actionId":"project-commit","integration":"export","title":"Commit","description":"Commit changes",
			"fields":[],
			"exportItems":[{"itemId":"A","deleted":false},{"itemId":"B","deleted":true}]}`),
		"POST /api/41/project/ops/scm/export/action/project-commit": func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			io.WriteString(w, `{"success":true,"message":"Committed"}`)
		},
	})

	req, err := NewPerformRequest([]string{"message=sync"}, []string{"explicit"}, nil, nil)
	require.NoError(t, err)

	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	out, err := p.Perform(context.Background(), tgt, "project-commit", req, Selection{AllItems: true})
	require.NoError(t, err)

	assert.True(t, out.Succeeded())
	assert.Equal(t, "Action project-commit", out.Name)
	assert.Equal(t, []string{"A"}, got.Items)
	assert.Equal(t, []string{"B"}, got.Deleted)
	assert.Equal(t, []string{}, got.Jobs)
	assert.Equal(t, []string{}, got.DeletedJobs)
	assert.Equal(t, "sync", got.Input["message"])
	assert.Equal(t, int32(2), fs.calls.Load())
}

func TestPerform_ImportAllTracked(t *testing.T) {
	var got client.ScmActionPerform
	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/41/project/ops/scm/import/action/import-all/input": jsonHandler(200, `{
			"actionId":"import-all","integration":"import",
			"importItems":[
				{"itemId":"A","tracked":true,"deleted":false},
				{"itemId":"B","tracked":false,"deleted":false},
				{"itemId":"C","tracked":true,"deleted":true,"job":{"jobId":"J1"}}]}`),
		"POST /api/41/project/ops/scm/import/action/import-all": func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			io.WriteString(w, `{"success":true}`)
		},
	})

	req, err := NewPerformRequest(nil, nil, nil, []string{"keep"})
	require.NoError(t, err)

	tgt := Target{Project: "ops", Integration: domain.IntegrationImport}
	out, err := p.Perform(context.Background(), tgt, "import-all", req, Selection{AllTracked: true})
	require.NoError(t, err)

	assert.True(t, out.Succeeded())
	assert.Equal(t, []string{"A"}, got.Items)
	assert.Equal(t, []string{"J1"}, got.DeletedJobs)
	assert.Equal(t, []string{"keep"}, got.Deleted, "import never touches deleted items")
}

func TestPerform_ExplicitListsWithoutInputsCall(t *testing.T) {
	var got client.ScmActionPerform
	fs, p := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/41/project/ops/scm/export/action/commit": func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			io.WriteString(w, `{"success":true}`)
		},
	})

	req, err := NewPerformRequest(nil, []string{"x", "y", "x"}, []string{"j"}, nil)
	require.NoError(t, err)

	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	// --alltracked к export не применим: inputs не запрашиваются
	_, err = p.Perform(context.Background(), tgt, "commit", req, Selection{AllTracked: true})
	require.NoError(t, err)

	assert.Equal(t, int32(1), fs.calls.Load())
	assert.Equal(t, []string{"x", "y"}, got.Items)
	assert.Equal(t, []string{"j"}, got.Jobs)
	assert.Equal(t, []string{}, got.Deleted)
}

func TestPerform_ValidationFailure(t *testing.T) {
	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/41/project/ops/scm/export/action/commit": jsonHandler(400,
			`{"success":false,"message":"Some input values were not valid.","validationErrors":{"message":"required"}}`),
	})

	req, _ := NewPerformRequest(nil, nil, nil, nil)
	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	out, err := p.Perform(context.Background(), tgt, "commit", req, Selection{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeValidation, out.Kind)
	assert.False(t, out.Succeeded())
	assert.Equal(t, "Action commit", out.Name)
}

func TestPerform_ValidationUndecodable(t *testing.T) {
	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/41/project/ops/scm/export/action/commit": jsonHandler(400, `not json`),
	})

	req, _ := NewPerformRequest(nil, nil, nil, nil)
	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	_, err := p.Perform(context.Background(), tgt, "commit", req, Selection{})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, client.StatusCode(err))
}

func TestPerform_InputsErrorIsFatal(t *testing.T) {
	fs, p := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/41/project/ops/scm/export/action/commit/input": jsonHandler(404, `{"error":true,"message":"no such action"}`),
	})

	req, _ := NewPerformRequest(nil, nil, nil, nil)
	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	_, err := p.Perform(context.Background(), tgt, "commit", req, Selection{AllItems: true})

	require.Error(t, err)
	assert.Equal(t, 404, client.StatusCode(err))
	assert.Equal(t, int32(1), fs.calls.Load(), "perform not called")
}

func TestSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "git.json")
	raw := `{"config":{"url":"git@example.com:ops.git"}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/41/project/ops/scm/export/plugin/git-export/setup": func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, raw, string(body))
			io.WriteString(w, `{"success":true,"nextAction":"commit"}`)
		},
	})

	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	out, err := p.Setup(context.Background(), tgt, "git-export", path)
	require.NoError(t, err)
	assert.True(t, out.Succeeded())
	assert.Equal(t, "Setup", out.Name)
	assert.Equal(t, "commit", out.Result.NextAction)
}

func TestSetup_ValidationNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "git.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/41/project/ops/scm/export/plugin/git-export/setup": jsonHandler(400,
			`{"success":false,"message":"Plugin configuration was invalid"}`),
	})

	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	out, err := p.Setup(context.Background(), tgt, "git-export", path)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValidation, out.Kind)
	assert.Equal(t, "Setup config Validation for file: "+path, out.Name)
}

func TestSetup_MissingFileBeforeNetwork(t *testing.T) {
	fs, p := newFakeServer(t, map[string]http.HandlerFunc{})

	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	_, err := p.Setup(context.Background(), tgt, "git-export", filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrConfigFile)
	assert.Equal(t, int32(0), fs.calls.Load())
}

func TestStatus_Idempotent(t *testing.T) {
	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/41/project/ops/scm/import/status": jsonHandler(200,
			`{"project":"ops","integration":"import","synchState":"CLEAN","actions":[]}`),
	})

	tgt := Target{Project: "ops", Integration: domain.IntegrationImport}
	s1, clean1, err := p.Status(context.Background(), tgt)
	require.NoError(t, err)
	s2, clean2, err := p.Status(context.Background(), tgt)
	require.NoError(t, err)

	assert.True(t, clean1)
	assert.Equal(t, clean1, clean2)
	assert.Equal(t, s1.SynchState, s2.SynchState)
}

func TestStatus_NotClean(t *testing.T) {
	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/41/project/ops/scm/export/status": jsonHandler(200,
			`{"project":"ops","integration":"export","synchState":"EXPORT_NEEDED","actions":["commit"]}`),
	})

	status, clean, err := p.Status(context.Background(), Target{Project: "ops", Integration: domain.IntegrationExport})
	require.NoError(t, err)
	assert.False(t, clean)
	assert.Equal(t, []string{"commit"}, status.Actions)
}

func TestEnableDisable(t *testing.T) {
	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"POST /api/41/project/ops/scm/export/plugin/git-export/enable":  jsonHandler(200, `{"success":true}`),
		"POST /api/41/project/ops/scm/export/plugin/git-export/disable": jsonHandler(500, `{"error":true,"message":"boom"}`),
	})

	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	assert.NoError(t, p.Enable(context.Background(), tgt, "git-export"))
	assert.Equal(t, 500, client.StatusCode(p.Disable(context.Background(), tgt, "git-export")))
	assert.ErrorIs(t, p.Enable(context.Background(), tgt, ""), domain.ErrMissingID)
}

func TestSetupInputsAndPlugins(t *testing.T) {
	_, p := newFakeServer(t, map[string]http.HandlerFunc{
		"GET /api/41/project/ops/scm/export/plugin/git-export/input": jsonHandler(200,
			`{"integration":"export","type":"git-export","fields":[{"name":"url","type":"String","required":true},{"name":"branch","type":"String"}]}`),
		"GET /api/41/project/ops/scm/export/plugins": jsonHandler(200,
			`{"integration":"export","plugins":[{"type":"git-export","title":"Git Export","enabled":true,"configured":true}]}`),
	})

	tgt := Target{Project: "ops", Integration: domain.IntegrationExport}
	inputs, err := p.SetupInputs(context.Background(), tgt, "git-export")
	require.NoError(t, err)
	require.Len(t, inputs.Fields, 2)
	assert.Equal(t, "url", inputs.Fields[0].Name)
	assert.Equal(t, "branch", inputs.Fields[1].Name)

	plugins, err := p.Plugins(context.Background(), tgt)
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.Equal(t, "git-export", plugins[0].Type)
}

func TestParseFields(t *testing.T) {
	m, err := ParseFields([]string{"message=fix: a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"message": "fix: a=b", "empty": ""}, m)

	_, err = ParseFields([]string{"novalue"})
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	_, err = ParseFields([]string{"=x"})
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}
