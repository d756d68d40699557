package gitsync

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// initRepos creates a working repository wired to a local bare remote.
func initRepos(t *testing.T) (workDir string) {
	t.Helper()

	bareDir := t.TempDir()
	if _, err := git.PlainInit(bareDir, true); err != nil {
		t.Fatalf("init bare repo: %v", err)
	}

	workDir = t.TempDir()
	repo, err := git.PlainInit(workDir, false)
	if err != nil {
		t.Fatalf("init work repo: %v", err)
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{bareDir},
	})
	if err != nil {
		t.Fatalf("create remote: %v", err)
	}
	return workDir
}

func newTestManager(t *testing.T, workDir string) *Manager {
	t.Helper()
	m, err := New(Config{
		RepoPath:   workDir,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func headMessage(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("commit object: %v", err)
	}
	return commit.Message
}

func TestPushSuccess(t *testing.T) {
	workDir := initRepos(t)
	m := newTestManager(t, workDir)
	path := writeFile(t, workDir, "2026-08-30_article.md", "content")

	if !m.Push(path, "Add article: article") {
		t.Fatal("Push returned false, want true")
	}
	if got := headMessage(t, workDir); got != "Add article: article" {
		t.Fatalf("head message = %q", got)
	}
}

func TestPushUnchangedFileIsStillSuccess(t *testing.T) {
	workDir := initRepos(t)
	m := newTestManager(t, workDir)
	path := writeFile(t, workDir, "doc.md", "content")

	if !m.Push(path, "first") {
		t.Fatal("first Push failed")
	}
	// Clean tree and up-to-date remote must not count as a failure.
	if !m.Push(path, "second") {
		t.Fatal("second Push returned false, want true")
	}
	if got := headMessage(t, workDir); got != "first" {
		t.Fatalf("head message = %q, want first (no empty commit)", got)
	}
}

func TestPushExhaustionKeepsLocalCommit(t *testing.T) {
	workDir := t.TempDir()
	repo, err := git.PlainInit(workDir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{filepath.Join(t.TempDir(), "missing")},
	})
	if err != nil {
		t.Fatalf("create remote: %v", err)
	}

	m := newTestManager(t, workDir)
	path := writeFile(t, workDir, "doc.md", "content")

	if m.Push(path, "Add article: doomed") {
		t.Fatal("Push returned true with unreachable remote")
	}
	if got := headMessage(t, workDir); got != "Add article: doomed" {
		t.Fatalf("head message = %q, want the commit despite push failure", got)
	}
}

func TestPullUpToDate(t *testing.T) {
	workDir := initRepos(t)
	m := newTestManager(t, workDir)
	path := writeFile(t, workDir, "doc.md", "content")

	if !m.Push(path, "seed") {
		t.Fatal("Push failed")
	}
	if !m.Pull() {
		t.Fatal("Pull returned false against an up-to-date remote")
	}
}

func TestPullFailure(t *testing.T) {
	workDir := t.TempDir()
	repo, err := git.PlainInit(workDir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{filepath.Join(t.TempDir(), "missing")},
	})
	if err != nil {
		t.Fatalf("create remote: %v", err)
	}

	m := newTestManager(t, workDir)
	if m.Pull() {
		t.Fatal("Pull returned true with unreachable remote")
	}
}

func TestNewRejectsNonRepo(t *testing.T) {
	if _, err := New(Config{RepoPath: t.TempDir()}, testLogger()); err == nil {
		t.Fatal("New should fail on a directory that is not a repository")
	}
}
