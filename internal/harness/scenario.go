package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultStart is the scenario clock when "now" is not given.
var DefaultStart = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

// DefaultUser sends the messages of steps that name no user.
const DefaultUser = "tester"

// Scenario is a scripted chat session.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Now is the RFC 3339 start time of the scenario clock.
	Now string `yaml:"now,omitempty"`

	// User sends every step that does not name its own.
	User string `yaml:"user,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions check the store after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step sends one message, moves the clock, or both (the clock first).
type Step struct {
	Send    string  `yaml:"send,omitempty"`
	User    string  `yaml:"user,omitempty"`
	Advance string  `yaml:"advance,omitempty"` // Go duration, e.g. 90s or 24h
	Expect  *Expect `yaml:"expect,omitempty"`
}

// Expect describes the reply a step must produce. Empty fields are not
// checked.
type Expect struct {
	// Reply is the exact reply text.
	Reply string `yaml:"reply,omitempty"`

	// Contains lists substrings of the reply text.
	Contains []string `yaml:"contains,omitempty"`

	// Error is the expected error code. "none" requires success.
	Error string `yaml:"error,omitempty"`

	// Request is matched against the compiled request's JSON as a subset.
	Request map[string]any `yaml:"request,omitempty"`

	// IDs are the event ids the store returned.
	IDs []string `yaml:"ids,omitempty"`

	// Affected is the affected-event count.
	Affected *int64 `yaml:"affected,omitempty"`
}

// Assertion checks the final store.
type Assertion struct {
	// Type is one of event_count, event_exists, user_config.
	Type string `yaml:"type"`

	// Where is a query condition in the stored form, e.g. {type: gym} or
	// {repeat: {$gte: 2}}. Empty matches every event.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect is matched as a subset: against some matching event for
	// event_exists, against the user's configuration for user_config.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the number of events Where must match (event_count).
	Count *int `yaml:"count,omitempty"`

	// User owns the configuration checked by user_config.
	User string `yaml:"user,omitempty"`
}

// Assertion types.
const (
	AssertEventCount  = "event_count"
	AssertEventExists = "event_exists"
	AssertUserConfig  = "user_config"
)

// ErrorNone in Expect.Error requires a step to succeed.
const ErrorNone = "none"

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Start returns the scenario's clock start.
func (s *Scenario) Start() (time.Time, error) {
	if s.Now == "" {
		return DefaultStart, nil
	}
	t, err := time.Parse(time.RFC3339, s.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("now: %w", err)
	}
	return t.UTC(), nil
}

// sender returns who sends step.
func (s *Scenario) sender(step Step) string {
	switch {
	case step.User != "":
		return step.User
	case s.User != "":
		return s.User
	default:
		return DefaultUser
	}
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.Start(); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Send == "" && step.Advance == "" {
			return fmt.Errorf("steps[%d]: send or advance is required", i)
		}
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("steps[%d]: advance: %w", i, err)
			}
			if d < 0 {
				return fmt.Errorf("steps[%d]: advance must not be negative", i)
			}
		}
		if step.Expect != nil && step.Send == "" {
			return fmt.Errorf("steps[%d]: expect needs a send", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEventCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for event_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertEventExists:
		if len(a.Expect) == 0 && len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where or expect is required for event_exists", index)
		}
	case AssertUserConfig:
		if a.User == "" {
			return fmt.Errorf("assertions[%d]: user is required for user_config", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for user_config", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
