package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Run executes one scenario file against handler as a subtest.
func Run(t *testing.T, handler http.Handler, scenarioPath string) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	t.Run(s.Name, func(t *testing.T) {
		RunScenario(t, handler, s)
	})
}

// RunDir runs every scenario file in dir, in name order. Files ending in
// _req.json or _res.json are request/response bodies, not scenarios.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()

	paths := scenarioFiles(dir)
	if len(paths) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}

	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: load %q: %v", path, err)
			continue
		}

		t.Run(s.Name, func(t *testing.T) {
			RunScenario(t, handler, s)
		})
	}
}

func scenarioFiles(dir string) []string {
	all, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	var out []string
	for _, p := range all {
		if strings.HasSuffix(p, "_req.json") || strings.HasSuffix(p, "_res.json") {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RunScenario fires s against handler and checks every assertion it names.
func RunScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	// ── Request ──

	var reqBody io.Reader
	if p := s.RequestBodyPath(); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read request file %q: %v", s.Name, p, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(strings.ToUpper(s.RequestMethod), s.RequestURL, reqBody)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// ── Assertions ──

	AssertStatusCode(t, s, rec.Code)
	AssertHeaders(t, s, rec.Header())

	if s.ExpectEmptyBody {
		AssertEmptyBody(t, s, rec.Body.Bytes())
	}
	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, p, err)
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}
	AssertBodyContains(t, s, rec.Body.String())
}
