package cli

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func withoutEnv(keys ...string) []string {
	out := make([]string, 0, len(os.Environ()))
	for _, e := range os.Environ() {
		skip := false
		for _, key := range keys {
			if strings.HasPrefix(e, key+"=") {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, e)
		}
	}
	return out
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	// internal/cli -> repo root
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func goExe() string {
	if runtime.GOOS == "windows" {
		return "go.exe"
	}
	return "go"
}

func buildPubcheckBinary(t *testing.T) string {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "pubcheck-test")
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}

	cmd := exec.Command(goExe(), "build", "-o", outPath, "./cmd/pubcheck")
	cmd.Dir = repoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build pubcheck binary: %v; output=%s", err, string(out))
	}

	return outPath
}

func exitCode(t *testing.T, err error, out []byte) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v; output=%s", err, err, string(out))
	}
	return exitErr.ProcessState.ExitCode()
}

// crossrefServer answers every works lookup with the given status. On 200 the
// record was created at 2021-01-01T00:00:00Z.
func crossrefServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "upstream unavailable", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","message":{"created":{"date-time":"2021-01-01T00:00:00Z"}}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeInbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := `{"dois":[{"value":"10.1016/j.physletb.2021.136000"}],"files":[{"filetype":"xml","url":"a.xml"}],"acquisition_source":{"date":"2021-01-01T10:00:00"}}`
	if err := os.WriteFile(filepath.Join(dir, "sub.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCheck_ExitCode3_WhenNoPathsProvided(t *testing.T) {
	binary := buildPubcheckBinary(t)
	// Pass a flag to bypass the "print help if no flags" check and force
	// validation to run.
	cmd := exec.Command(binary, "check", "--verbose")

	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 3 {
		t.Fatalf("expected exit code 3, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "at least one submission file or directory must be provided") {
		t.Fatalf("expected validation message; output=%s", string(out))
	}
}

func TestCheck_ExitCode3_WhenOutFormatCannotBeInferred(t *testing.T) {
	binary := buildPubcheckBinary(t)
	cmd := exec.Command(binary, "check", writeInbox(t), "--out", "results.unknown")

	out, err := cmd.CombinedOutput()
	if code := exitCode(t, err, out); code != 3 {
		t.Fatalf("expected exit code 3, got %d; output=%s", code, string(out))
	}
	if !strings.Contains(string(out), "cannot infer output format") {
		t.Fatalf("expected output format inference error; output=%s", string(out))
	}
}

func TestCheck_ExitCode1_WhenSubmissionIsNonCompliant(t *testing.T) {
	binary := buildPubcheckBinary(t)
	srv := crossrefServer(t, http.StatusOK)

	cmd := exec.Command(binary, "check", writeInbox(t),
		"--crossref-url", srv.URL, "--store", "none", "--no-console", "--emit", "ndjson")
	cmd.Env = withoutEnv("PUBCHECK_CROSSREF_MAILTO", "PUBCHECK_STORAGE_PATH")

	out, err := cmd.Output()
	if code := exitCode(t, err, out); code != 1 {
		t.Fatalf("expected exit code 1, got %d; output=%s", code, string(out))
	}
	s := string(out)
	for _, want := range []string{`"type":"run.started"`, `"type":"verdict"`, `"type":"run.finished"`, `"exit_code":1`, "No pdf file."} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected output to contain %q; output=%s", want, s)
		}
	}
}

func TestCheck_ExitCode2_WhenRegistryFails(t *testing.T) {
	binary := buildPubcheckBinary(t)
	srv := crossrefServer(t, http.StatusInternalServerError)

	cmd := exec.Command(binary, "check", writeInbox(t),
		"--crossref-url", srv.URL, "--store", "none", "--no-console", "--emit", "ndjson")
	cmd.Env = withoutEnv("PUBCHECK_CROSSREF_MAILTO", "PUBCHECK_STORAGE_PATH")

	out, err := cmd.Output()
	if code := exitCode(t, err, out); code != 2 {
		t.Fatalf("expected exit code 2, got %d; output=%s", code, string(out))
	}
	s := string(out)
	if !strings.Contains(s, `"status":"ERROR"`) {
		t.Fatalf("expected an ERROR result; output=%s", s)
	}
	if strings.Contains(s, srv.URL) {
		t.Fatalf("expected request URL to be scrubbed without --verbose; output=%s", s)
	}
}

func TestCheck_Help_DocumentsOutputAndExitCodes(t *testing.T) {
	binary := buildPubcheckBinary(t)
	cmd := exec.Command(binary, "check", "--help")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("expected zero exit; err=%v; output=%s", err, string(out))
	}

	s := string(out)
	// Regression guard: command help must document machine-readable output and
	// exit status semantics.
	required := []string{
		"Output:",
		"Exit codes:",
		"NDJSON mode emits",
		"run.started",
		"verdict",
		"run.finished",
	}
	for _, r := range required {
		if !strings.Contains(s, r) {
			t.Fatalf("expected check --help to contain %q; output=%s", r, s)
		}
	}
}
