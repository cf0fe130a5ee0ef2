package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solestore/solestore/pkg/router"
)

// ConfigEntry is one endpoint group in a suite's master file.
type ConfigEntry struct {
	ServiceName       string `json:"serviceName"`
	FilePath          string `json:"filePath"`
	ScenariosFileName string `json:"scenariosFileName"`
	ServiceURL        string `json:"serviceUrl"`
	HTTPMethodType    string `json:"httpMethodType"`
	WorkflowService   string `json:"workflowService"` // key into the handlers map
}

// RunSuite mounts each entry's handler on a fresh router and runs the
// scenario array it points to.
func RunSuite(t *testing.T, masterConfigPath string, handlers map[string]http.HandlerFunc) {
	t.Helper()

	absMasterPath, err := filepath.Abs(masterConfigPath)
	if err != nil {
		t.Fatalf("testkit: resolve master config path %q: %v", masterConfigPath, err)
	}

	data, err := os.ReadFile(absMasterPath)
	if err != nil {
		t.Fatalf("testkit: read master config %q: %v", absMasterPath, err)
	}

	var entries []ConfigEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("testkit: parse master config %q: %v", absMasterPath, err)
	}

	baseDir := filepath.Dir(absMasterPath)

	for _, entry := range entries {
		t.Run(entry.ServiceName, func(t *testing.T) {
			handlerFunc, ok := handlers[entry.WorkflowService]
			if !ok {
				t.Fatalf("testkit: handler %q not found in provided map", entry.WorkflowService)
			}

			url := "/" + strings.TrimPrefix(entry.ServiceURL, "/")

			r := router.New()
			switch strings.ToUpper(entry.HTTPMethodType) {
			case http.MethodPost:
				r.Post(url, entry.WorkflowService, handlerFunc)
			case router.MethodAny:
				r.Any(url, entry.WorkflowService, handlerFunc)
			default:
				r.Get(url, entry.WorkflowService, handlerFunc)
			}

			scenarioPath := filepath.Join(baseDir, entry.FilePath, entry.ScenariosFileName)
			scenarios, err := LoadScenarioArray(scenarioPath)
			if err != nil {
				t.Fatalf("testkit: load scenario array %q: %v", scenarioPath, err)
			}

			for _, s := range scenarios {
				if s.RequestURL == "" {
					s.RequestURL = url
				}
				if s.RequestMethod == "" {
					s.RequestMethod = entry.HTTPMethodType
				}
				if s.RequestMethod == router.MethodAny {
					s.RequestMethod = http.MethodGet
				}

				t.Run(s.Name, func(t *testing.T) {
					RunScenario(t, r.Handler(), s)
				})
			}
		})
	}
}
