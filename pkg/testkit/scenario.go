// Package testkit drives HTTP handler tests from JSON scenario files.
//
// Each scenario names one request and what the response must look like:
//
//	testdata/
//	  read_seeded.json        ← scenario
//	  read_seeded_res.json    ← expected response body
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, handler, "testdata")
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ─── Schema ───────────────────────────────────────────────────────────────────

// Scenario is a single request/response test case.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"` // request body, relative to the scenario file
	Headers         map[string]string `json:"headers"`

	ExpectedCode       int    `json:"expectedCode"`
	ExpectedStatusCode int    `json:"expectedStatusCode"` // alias for expectedCode
	ResponseFileName   string `json:"responseFileName"`   // expected JSON body

	// ExpectedHeaders must match exactly; ExpectEmptyBody and BodyContains
	// cover non-JSON responses.
	ExpectedHeaders map[string]string `json:"expectedHeaders"`
	ExpectEmptyBody bool              `json:"expectEmptyBody"`
	BodyContains    []string          `json:"bodyContains"`

	dir string
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		s.ExpectedCode = s.ExpectedStatusCode
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	if s.ExpectEmptyBody && (s.ResponseFileName != "" || len(s.BodyContains) > 0) {
		return fmt.Errorf("expectEmptyBody conflicts with body assertions")
	}
	return nil
}

// RequestBodyPath returns the request body file path, or "" when unset.
func (s *Scenario) RequestBodyPath() string {
	return s.resolve(s.RequestFileName)
}

// ResponseBodyPath returns the expected response file path, or "" when unset.
func (s *Scenario) ResponseBodyPath() string {
	return s.resolve(s.ResponseFileName)
}

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// LoadScenarioArray reads an array of scenarios from one file. URL and method
// may be left empty for the suite runner to fill in.
func LoadScenarioArray(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve scenario array path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read scenario array %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse scenario array %q: %w", abs, err)
	}

	dir := filepath.Dir(abs)
	for _, s := range scenarios {
		s.dir = dir
		if s.Name == "" {
			return nil, fmt.Errorf("testkit: invalid scenario array item: name is required")
		}
		if s.ExpectedCode == 0 {
			s.ExpectedCode = s.ExpectedStatusCode
		}
		if s.ExpectedCode == 0 {
			s.ExpectedCode = 200
		}
	}
	return scenarios, nil
}
