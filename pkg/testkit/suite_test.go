package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuiteRunner(t *testing.T) {
	masterConfig := []ConfigEntry{
		{
			ServiceName:       "Echo",
			FilePath:          "sample_api",
			ScenariosFileName: "echo_scenario.json",
			ServiceURL:        "api/echo",
			HTTPMethodType:    "POST",
			WorkflowService:   "HandleEcho",
		},
	}

	scenarios := []Scenario{
		{
			Name:             "EchoSuccess",
			RequestFileName:  "req.json",
			ResponseFileName: "res.json",
		},
	}

	dir := t.TempDir()
	masterPath := filepath.Join(dir, "test_scenarios.json")

	masterData, err := json.Marshal(masterConfig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(masterPath, masterData, 0o644))

	apiDir := filepath.Join(dir, "sample_api")
	require.NoError(t, os.MkdirAll(apiDir, 0o755))

	scenarioData, err := json.Marshal(scenarios)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(apiDir, "echo_scenario.json"), scenarioData, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(apiDir, "req.json"), []byte(`{"message": "hello"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(apiDir, "res.json"), []byte(`{"message": "hello"}`), 0o644))

	handlers := map[string]http.HandlerFunc{
		"HandleEcho": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message": "hello"}`))
		},
	}

	RunSuite(t, masterPath, handlers)
}
