package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enfiniq/loomcal-sub000/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conversation scenarios",
		Long: `Run YAML conversation scenarios against a fresh in-memory event store.

Each scenario sends chat messages, checks the replies and compiled
requests, then asserts on the stored events. When golden/<name>.golden
exists next to a scenario, the trace must also match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  loomcal test ./scenarios
  loomcal test ./scenarios --filter "dedup*"
  loomcal test ./scenarios --update
  loomcal test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	for _, scenarioFile := range scenarioFiles {
		formatter.VerboseLog("Running %s", scenarioFile)
		sr := runScenario(scenarioFile, opts)
		if opts.Format != "json" {
			printScenario(formatter, sr, opts.Update)
		}

		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// findScenarioFiles finds all YAML scenario files under dir.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario executes a single scenario and returns the result.
func runScenario(scenarioFile string, opts *TestOptions) ScenarioResult {
	fail := func(name string, format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return fail(filepath.Base(scenarioFile), "failed to load scenario: %v", err)
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return fail(scenario.Name, "execution failed: %v", err)
	}

	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return fail(scenario.Name, "failed to snapshot trace: %v", err)
	}

	goldenPath := goldenFilePath(scenarioFile)
	if opts.Update {
		if err := writeGoldenFile(goldenPath, snapshot); err != nil {
			return fail(scenario.Name, "failed to update golden file: %v", err)
		}
	} else if golden, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(golden, snapshot) {
			result.AddError("trace does not match golden file (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		return fail(scenario.Name, "golden comparison failed: %v", err)
	}

	return ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func printScenario(f *OutputFormatter, sr ScenarioResult, updated bool) {
	if !sr.Pass {
		fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
		return
	}
	if updated {
		fmt.Fprintf(f.Writer, "✓ %s (golden updated)\n", sr.Name)
		return
	}
	fmt.Fprintf(f.Writer, "✓ %s\n", sr.Name)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(f *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := f.Encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(f *OutputFormatter, result TestResult) error {
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	return nil
}
