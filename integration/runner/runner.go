package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/actor"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

const defaultMaxAttempts = 20

// Runner executes integration suites against a running realm-engine API.
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Timeout:           WorldTimeout,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}
	return suite, nil
}

// LoadTestSuiteWithExpansion loads a suite file, resolving sequence files
// into the cases they name, relative to casesDir.
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	return loadJobs(filename, casesDir, map[string]bool{})
}

func loadJobs(filename, casesDir string, seen map[string]bool) ([]TestJob, error) {
	if seen[filename] {
		return nil, fmt.Errorf("sequence cycle through %s", filename)
	}
	seen[filename] = true
	defer delete(seen, filename)

	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}
	if !suite.IsSequence() {
		return []TestJob{{Name: suite.Name, Suite: suite, CaseFile: filename}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		sub, err := loadJobs(filepath.Join(casesDir, caseFile), casesDir, seen)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, sub...)
	}
	return jobs, nil
}

// RunSuite creates a fresh player and runs every step against it.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	name := suite.PlayerName
	if name == "" {
		name = "Tester"
	}
	name = fmt.Sprintf("%s %s", name, uuid.NewString()[:6])

	p, err := CreatePlayer(ctx, r.Client, r.BaseURL, name)
	if err != nil {
		result.Error = fmt.Errorf("failed to create player: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.PlayerID = p.ID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, p, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
		} else {
			r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
		}

		if fresh, err := GetPlayer(ctx, r.Client, r.BaseURL, p.ID); err == nil && fresh != nil {
			p = fresh
		}
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes one step, repeating it while UntilOutcome is unmet.
func (r *Runner) runStep(ctx context.Context, p *actor.Player, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	attempts := 1
	if step.UntilOutcome != "" {
		attempts = step.MaxAttempts
		if attempts <= 0 {
			attempts = defaultMaxAttempts
		}
	}

	var (
		status int
		res    *action.Result
	)
	for result.Attempts < attempts {
		result.Attempts++

		req, err := buildRequest(p, step)
		if err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
		status, res, err = PostAction(ctx, r.Client, r.BaseURL, req)
		if err != nil {
			result.Error = fmt.Errorf("failed to post action: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		if step.UntilOutcome == "" || string(res.Outcome) == step.UntilOutcome {
			break
		}
		if res.Player != nil {
			p = res.Player
		}
	}
	result.Outcome = string(res.Outcome)

	if step.UntilOutcome != "" && string(res.Outcome) != step.UntilOutcome {
		result.Error = fmt.Errorf("outcome %q not reached after %d attempts", step.UntilOutcome, result.Attempts)
		result.Duration = time.Since(start)
		return result
	}

	after := res.Player
	if after == nil {
		if after, _ = GetPlayer(ctx, r.Client, r.BaseURL, p.ID); after == nil {
			after = p
		}
	}

	if err := r.checkExpectations(ctx, step.Expectations, status, res, after); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// buildRequest fills in the player id and resolves FirstEncounter.
func buildRequest(p *actor.Player, step TestStep) (action.Request, error) {
	req := action.Request{PlayerID: p.ID, Action: step.Action, Payload: step.Payload}
	if len(step.Payload) == 0 || !strings.Contains(string(step.Payload), FirstEncounter) {
		return req, nil
	}

	var fp action.FightPayload
	if err := json.Unmarshal(step.Payload, &fp); err != nil {
		return req, fmt.Errorf("invalid fight payload: %w", err)
	}
	if fp.EnemyID == FirstEncounter {
		ids := make([]string, 0, len(p.Encounters))
		for id := range p.Encounters {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return req, fmt.Errorf("player has no encounter to target")
		}
		slices.Sort(ids)
		fp.EnemyID = ids[0]
	}
	data, err := json.Marshal(fp)
	if err != nil {
		return req, err
	}
	req.Payload = data
	return req, nil
}

func (r *Runner) checkExpectations(ctx context.Context, exp Expectations, status int, res *action.Result, p *actor.Player) error {
	if exp.Status != nil && status != *exp.Status {
		return fmt.Errorf("expected status %d, got %d (%s)", *exp.Status, status, res.Error)
	}
	if exp.OK != nil && res.OK != *exp.OK {
		return fmt.Errorf("expected ok %t, got %t (%s)", *exp.OK, res.OK, res.Error)
	}
	if len(exp.Outcome) > 0 && !slices.Contains(exp.Outcome, string(res.Outcome)) {
		return fmt.Errorf("expected outcome in %v, got %q", exp.Outcome, res.Outcome)
	}
	if exp.ErrorKind != "" && string(res.ErrorKind) != exp.ErrorKind {
		return fmt.Errorf("expected error kind %s, got %q", exp.ErrorKind, res.ErrorKind)
	}

	if exp.LevelMin != nil && p.Level < *exp.LevelMin {
		return fmt.Errorf("expected level >= %d, got %d", *exp.LevelMin, p.Level)
	}
	if exp.XPMin != nil && p.XP < *exp.XPMin {
		return fmt.Errorf("expected xp >= %d, got %d", *exp.XPMin, p.XP)
	}
	if exp.XPMax != nil && p.XP > *exp.XPMax {
		return fmt.Errorf("expected xp <= %d, got %d", *exp.XPMax, p.XP)
	}
	if len(exp.ElementsContain) > 0 {
		if ok, missing := p.Inventory.HasElements(exp.ElementsContain); !ok {
			return fmt.Errorf("expected elements to contain '%s'. Actual elements: %v", missing, p.Inventory.Elements)
		}
	}
	if exp.ItemsMin != nil && len(p.Inventory.Items) < *exp.ItemsMin {
		return fmt.Errorf("expected at least %d items, got %d", *exp.ItemsMin, len(p.Inventory.Items))
	}
	if exp.EncountersMin != nil && len(p.Encounters) < *exp.EncountersMin {
		return fmt.Errorf("expected at least %d encounters, got %d", *exp.EncountersMin, len(p.Encounters))
	}
	if exp.EncountersMax != nil && len(p.Encounters) > *exp.EncountersMax {
		return fmt.Errorf("expected at most %d encounters, got %d", *exp.EncountersMax, len(p.Encounters))
	}
	if exp.DiscoveriesMin != nil && len(p.Discoveries) < *exp.DiscoveriesMin {
		return fmt.Errorf("expected at least %d discoveries, got %d", *exp.DiscoveriesMin, len(p.Discoveries))
	}
	if exp.Location != nil && p.Location != *exp.Location {
		return fmt.Errorf("expected location %s, got %s", *exp.Location, p.Location)
	}

	for _, line := range exp.WorldContains {
		line = strings.ReplaceAll(line, "{player}", p.Name)
		if err := PollForWorldEvent(ctx, r.Client, r.BaseURL, line, r.Timeout); err != nil {
			return err
		}
	}
	return nil
}
