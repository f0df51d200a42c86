package gitsource

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"ctxpick/internal/config"
	"ctxpick/internal/logging"
	"ctxpick/internal/runner"
)

func newTestSource(t *testing.T, root string) (*GitSource, *runner.MockRunner) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RepoRoot = root
	mock := runner.NewMockRunner()
	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: &bytes.Buffer{}})
	return NewGitSource(cfg, mock, logger), mock
}

func TestListPathsFiltersIgnoredAndGenerated(t *testing.T) {
	src, mock := newTestSource(t, ".")
	paths := []string{
		"src/auth.go",
		"node_modules/pkg/index.js",
		"web/app.min.js",
		"web/app.js.map",
		"types/api.d.ts",
		"vendor/lib/lib.go",
		"README.md",
	}
	mock.SetCommand("git ls-files -z", strings.Join(paths, "\x00"), "", nil)

	got, err := src.ListPaths(context.Background())
	if err != nil {
		t.Fatalf("ListPaths error: %v", err)
	}
	want := []string{"src/auth.go", "README.md"}
	if len(got) != len(want) {
		t.Fatalf("ListPaths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListPaths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListPathsDegradesToEmptyOnGitFailure(t *testing.T) {
	src, mock := newTestSource(t, ".")
	mock.SetCommand("git ls-files -z", "", "fatal: not a git repository", errors.New("exit status 128"))

	got, err := src.ListPaths(context.Background())
	if err != nil {
		t.Fatalf("ListPaths should degrade, got error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListPaths = %v, want empty", got)
	}
}

func TestSearchContentSingleInvocation(t *testing.T) {
	src, mock := newTestSource(t, ".")
	mock.SetCommand("git grep -I -i -l -F -e auth -e jwt", "src/auth.go\nsrc/token.go", "", nil)

	got, err := src.SearchContent(context.Background(), []string{"auth", "jwt"})
	if err != nil {
		t.Fatalf("SearchContent error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
	if _, ok := got["src/auth.go"]; !ok {
		t.Error("missing src/auth.go")
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Errorf("SearchContent issued %d calls, want exactly 1", len(calls))
	}
}

func TestSearchContentNoMatchIsEmptyNotError(t *testing.T) {
	src, mock := newTestSource(t, ".")
	// git grep exits 1 when nothing matches.
	mock.SetCommand("git grep -I -i -l -F -e zebra", "", "", errors.New("exit status 1"))

	got, err := src.SearchContent(context.Background(), []string{"zebra"})
	if err != nil {
		t.Fatalf("SearchContent error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("matches = %v, want empty", got)
	}
}

func TestSearchContentEmptyKeywordsSkipsGit(t *testing.T) {
	src, mock := newTestSource(t, ".")
	got, err := src.SearchContent(context.Background(), nil)
	if err != nil {
		t.Fatalf("SearchContent error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("matches = %v, want empty", got)
	}
	if len(mock.Calls()) != 0 {
		t.Error("no git call expected for an empty keyword set")
	}
}

func TestSearchContentFiltersExcludedPaths(t *testing.T) {
	src, mock := newTestSource(t, ".")
	mock.SetCommand("git", "src/auth.go\nnode_modules/dep/auth.js", "", nil)

	got, err := src.SearchContent(context.Background(), []string{"auth"})
	if err != nil {
		t.Fatalf("SearchContent error: %v", err)
	}
	if _, ok := got["node_modules/dep/auth.js"]; ok {
		t.Error("excluded directory leaked through content search")
	}
	if _, ok := got["src/auth.go"]; !ok {
		t.Error("missing src/auth.go")
	}
}

func TestFileReadsSoftFail(t *testing.T) {
	src, _ := newTestSource(t, t.TempDir())

	if got := src.FileSize("missing.go"); got != 0 {
		t.Errorf("FileSize(missing) = %d, want 0", got)
	}
	if got := src.FileContent("missing.go"); got != "" {
		t.Errorf("FileContent(missing) = %q, want empty", got)
	}
}

func TestFileReadsRealFile(t *testing.T) {
	root := t.TempDir()
	src, _ := newTestSource(t, root)
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := src.FileSize("a.txt"); got != 5 {
		t.Errorf("FileSize = %d, want 5", got)
	}
	if got := src.FileContent("a.txt"); got != "hello" {
		t.Errorf("FileContent = %q, want hello", got)
	}
	if !src.Exists("a.txt") {
		t.Error("Exists(a.txt) = false, want true")
	}
	if src.Exists("b.txt") {
		t.Error("Exists(b.txt) = true, want false")
	}
}

func TestExistsRejectsPathsOutsideRepoRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "repo")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("top secret"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("ok"), 0644); err != nil {
		t.Fatal(err)
	}
	src, _ := newTestSource(t, root)

	if src.Exists("../secret.txt") {
		t.Error("Exists(../secret.txt) = true, want false: escapes the repo root")
	}
	if src.Exists("sub/../../secret.txt") {
		t.Error("Exists(sub/../../secret.txt) = true, want false: escapes the repo root")
	}
	if src.Exists(filepath.Join(parent, "secret.txt")) {
		t.Error("absolute path outside the root passed validation")
	}
	if !src.Exists("a.txt") {
		t.Error("Exists(a.txt) = false, want true")
	}
}

func TestLastModifiedFromGitLog(t *testing.T) {
	src, mock := newTestSource(t, t.TempDir())
	mock.SetCommand("git log -1 --format=%ct -- src/auth.go", "1700000000", "", nil)

	if got := src.LastModified(context.Background(), "src/auth.go"); got != 1700000000 {
		t.Errorf("LastModified = %d, want 1700000000", got)
	}
}

func TestLastModifiedFallsBackToMtimeThenZero(t *testing.T) {
	root := t.TempDir()
	src, mock := newTestSource(t, root)
	mock.SetCommand("git", "", "", errors.New("exit status 128"))

	if err := os.WriteFile(filepath.Join(root, "new.go"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := src.LastModified(context.Background(), "new.go"); got == 0 {
		t.Error("LastModified should fall back to file mtime")
	}
	if got := src.LastModified(context.Background(), "gone.go"); got != 0 {
		t.Errorf("LastModified(gone) = %d, want 0", got)
	}
}

func TestIsAvailable(t *testing.T) {
	src, mock := newTestSource(t, ".")
	if src.IsAvailable(context.Background()) {
		t.Error("git not on mock PATH, should be unavailable")
	}

	mock.SetLookPath("git", "/usr/bin/git")
	mock.SetCommand("git rev-parse --is-inside-work-tree", "true", "", nil)
	if !src.IsAvailable(context.Background()) {
		t.Error("should be available")
	}

	if err := src.RequireAvailable(context.Background()); err != nil {
		t.Errorf("RequireAvailable = %v, want nil", err)
	}
}

func TestRequireAvailableError(t *testing.T) {
	src, _ := newTestSource(t, ".")
	err := src.RequireAvailable(context.Background())
	if err == nil {
		t.Fatal("expected error when git is missing")
	}
	if !strings.Contains(err.Error(), "GIT_UNAVAILABLE") {
		t.Errorf("error = %v, want GIT_UNAVAILABLE code", err)
	}
}

func TestExcludedSegments(t *testing.T) {
	src, _ := newTestSource(t, ".")
	cases := map[string]bool{
		"node_modules/a.js":          true,
		"src/node_modules/a.js":      true,
		"src/app.go":                 false,
		"my_node_modules_fork/a.js":  false, // only whole segments match
		"dist/bundle.js":             true,
		"lib/util.min.js":            true,
		"styles/site.min.css":        true,
		"docs/readme.md":             false,
	}
	keys := make([]string, 0, len(cases))
	for k := range cases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, path := range keys {
		if got := src.excluded(path); got != cases[path] {
			t.Errorf("excluded(%q) = %v, want %v", path, got, cases[path])
		}
	}
}
