package runner

import (
	"encoding/json"
	"time"
)

// FirstEncounter in a fight payload's enemy_id is replaced with the id of
// the player's first active encounter.
const FirstEncounter = "$first"

// TestSuite defines a complete integration scenario against a fresh player.
// A suite either has Steps or references other case files through Cases.
type TestSuite struct {
	Name       string     `json:"name"`
	PlayerName string     `json:"player_name,omitempty"`
	Steps      []TestStep `json:"steps,omitempty"`
	Cases      []string   `json:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one action call and its expected outcome. With UntilOutcome
// set, the action repeats up to MaxAttempts times until that outcome occurs.
type TestStep struct {
	Name         string          `json:"name,omitempty"`
	Action       string          `json:"action"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	UntilOutcome string          `json:"until_outcome,omitempty"`
	MaxAttempts  int             `json:"max_attempts,omitempty"`
	Expectations Expectations    `json:"expect"`
}

// Expectations are checked against the action response and the player
// record that follows it. Unset fields are not checked.
type Expectations struct {
	Status    *int     `json:"status,omitempty"`
	OK        *bool    `json:"ok,omitempty"`
	Outcome   []string `json:"outcome,omitempty"` // any of
	ErrorKind string   `json:"error_kind,omitempty"`

	LevelMin        *int     `json:"level_min,omitempty"`
	XPMin           *int     `json:"xp_min,omitempty"`
	XPMax           *int     `json:"xp_max,omitempty"`
	ElementsContain []string `json:"elements_contain,omitempty"`
	ItemsMin        *int     `json:"items_min,omitempty"`
	EncountersMin   *int     `json:"encounters_min,omitempty"`
	EncountersMax   *int     `json:"encounters_max,omitempty"`
	DiscoveriesMin  *int     `json:"discoveries_min,omitempty"`
	Location        *string  `json:"location,omitempty"`

	// WorldContains lines must appear in the world feed. "{player}" is
	// replaced with the suite's player name.
	WorldContains []string `json:"world_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Attempts int
	Outcome  string
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	PlayerID string
}
