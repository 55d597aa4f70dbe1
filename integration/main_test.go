//go:build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/realm-engine/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")

func apiBaseURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func TestMain(m *testing.M) {
	flag.Parse()
	fmt.Printf("Running Realm Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func newRunner() *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 10)) * time.Second
	r.ErrorHandlingMode = runner.ErrorHandlingMode(*errFlag)
	r.Logger = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

func TestIntegrationSuites(t *testing.T) {
	files, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if *caseFlag != "" {
		files = []string{filepath.Join("cases", strings.TrimSuffix(*caseFlag, ".json")+".json")}
	}
	if len(files) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	r := newRunner()
	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

		result, err := r.RunSuite(ctx, job.Suite)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, err))
			t.Errorf("[%d/%d] FAILED: %s (player %s): %v", i+1, len(jobs), job.Name, result.PlayerID, err)
			continue
		}
		t.Logf("[%d/%d] PASSED: %s in %v", i+1, len(jobs), job.Name, result.Duration)
	}

	t.Logf("%d/%d suites passed", len(jobs)-len(failed), len(jobs))
	for _, f := range failed {
		t.Logf("   ✗ %s", f)
	}
}

// discoverTestFiles lists case files, skipping sequence-only fragments
// prefixed with an underscore.
func discoverTestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func getIntEnv(name string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
