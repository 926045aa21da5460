// imptest runs impc over sample programs and compares the Program dumps and
// diagnostics against golden JSON files stored next to each sample.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

type Execution struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

type Golden struct {
	Hash   string    `json:"hash"`
	Result Execution `json:"result"`
}

type FileTestResult struct {
	File    string     `json:"file"`
	Status  string     `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string     `json:"message,omitempty"`
	Diff    string     `json:"diff,omitempty"`
	Target  *Execution `json:"target,omitempty"`
}

var (
	targetCompiler = flag.String("target-compiler", "./impc", "Path to the impc binary under test.")
	targetArgs     = flag.String("target-args", "-d -q", "Arguments passed to impc before the source file.")
	generateGolden = flag.Bool("generate-golden", false, "Write golden files for the selected sources instead of comparing.")
	testFiles      = flag.String("test-files", "tests/*.imp", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each impc execution.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	useCache       = flag.Bool("cached", false, "Skip sources whose hash matches a passing result in the previous report.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	if *generateGolden {
		for _, f := range files {
			if err := writeGolden(f); err != nil {
				log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
			}
			log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenPath(f))
		}
		return
	}

	previous := loadPrevious(*outputJSON)
	results := runSuite(files, previous)
	printSummary(results)
	if err := writeReport(*outputJSON, results); err != nil {
		log.Printf("%s[WARN]%s Could not write report: %v\n", cYellow, cNone, err)
	}
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			os.Exit(1)
		}
	}
}

func goldenPath(source string) string {
	return filepath.Join(filepath.Dir(source), "."+filepath.Base(source)+".json")
}

// hashFile computes the xxhash of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func writeGolden(source string) error {
	hash, err := hashFile(source)
	if err != nil {
		return fmt.Errorf("hash %s: %w", source, err)
	}
	data, err := json.MarshalIndent(Golden{Hash: hash, Result: runImpc(source)}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal golden data: %w", err)
	}
	return os.WriteFile(goldenPath(source), data, 0o644)
}

func loadPrevious(path string) map[string]*FileTestResult {
	out := make(map[string]*FileTestResult)
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, path)
		return make(map[string]*FileTestResult)
	}
	return out
}

func runSuite(files []string, previous map[string]*FileTestResult) []*FileTestResult {
	skip := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skip[f] = true
	}

	tasks := make(chan string, len(files))
	results := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < max(*jobs, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				results <- testFile(file, previous[file])
			}
		}()
	}

	// Identical sources are only tested once.
	seen := make(map[string]string)
	for _, file := range files {
		if skip[file] {
			results <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		hash, err := hashFile(file)
		if err != nil {
			results <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if orig, ok := seen[hash]; ok {
			results <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", orig)}
			continue
		}
		seen[hash] = file
		tasks <- file
	}
	close(tasks)
	wg.Wait()
	close(results)

	var all []*FileTestResult
	for r := range results {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].File < all[j].File })
	return all
}

func testFile(file string, prev *FileTestResult) *FileTestResult {
	data, err := os.ReadFile(goldenPath(file))
	if errors.Is(err, os.ErrNotExist) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}
	var golden Golden
	if err := json.Unmarshal(data, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file: %v", err)}
	}

	hash, _ := hashFile(file)
	if hash != golden.Hash {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Source changed since the golden file was generated; regenerate it"}
	}
	if *useCache && prev != nil && prev.Status == "PASS" {
		return &FileTestResult{File: file, Status: "PASS", Message: "Cached"}
	}

	got := runImpc(file)
	if *verbose {
		log.Printf("[%s] exit %d\n", file, got.ExitCode)
	}
	if diff := cmp.Diff(golden.Result, got); diff != "" {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Output mismatch (-golden +got)", Diff: diff, Target: &got}
	}
	return &FileTestResult{File: file, Status: "PASS", Message: "Output matches golden file", Target: &got}
}

// runImpc executes the compiler under test with NO_COLOR set so diagnostics
// compare as plain text.
func runImpc(source string) Execution {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	args := append(strings.Fields(*targetArgs), source)
	cmd := exec.CommandContext(ctx, *targetCompiler, args...)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	res := Execution{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.TimedOut, res.ExitCode = true, -1
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.ExitCode = -2
		res.Stderr += "\nExecution error: " + err.Error()
	}
	return res
}

func expandGlobPatterns(patterns string) ([]string, error) {
	set := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			set[m] = true
		}
	}
	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func printSummary(results []*FileTestResult) {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status]++
		color := cGreen
		switch r.Status {
		case "FAIL", "ERROR":
			color = cRed
		case "SKIP":
			color = cYellow
		}
		fmt.Printf("%s[%s]%s %s: %s\n", color, r.Status, cNone, r.File, r.Message)
		if r.Diff != "" {
			fmt.Println(r.Diff)
		}
	}
	fmt.Printf("\n%s%d passed, %d failed, %d errors, %d skipped%s\n", cBold, counts["PASS"], counts["FAIL"], counts["ERROR"], counts["SKIP"], cNone)
}

func writeReport(path string, results []*FileTestResult) error {
	m := make(map[string]*FileTestResult, len(results))
	for _, r := range results {
		m[r.File] = r
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
