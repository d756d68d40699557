// Package gitsync mirrors the local vault to a remote repository.
//
// All git operations run under one mutex: stage+commit+push is one atomic
// unit, pull another. Only the push is retried; the commit already
// guarantees local durability when the remote is unreachable.
package gitsync

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
	defaultRemote     = "origin"

	defaultAuthorName  = "stockpile"
	defaultAuthorEmail = "stockpile@localhost"
)

// Config holds construction parameters for a Manager.
type Config struct {
	RepoPath string
	Token    string // HTTPS credential token; empty disables auth
	Remote   string // defaults to origin

	MaxRetries int
	RetryDelay time.Duration

	AuthorName  string
	AuthorEmail string
}

// Manager performs stage/commit/push and pull against one repository.
type Manager struct {
	repoPath string
	repo     *git.Repository
	remote   string
	auth     transport.AuthMethod

	maxRetries int
	retryDelay time.Duration

	authorName  string
	authorEmail string

	mu     sync.Mutex
	logger *slog.Logger
}

// New opens the repository at cfg.RepoPath and prepares credentials. The
// repository must already be initialized and point at the remote.
func New(cfg Config, logger *slog.Logger) (*Manager, error) {
	repo, err := git.PlainOpen(cfg.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", cfg.RepoPath, err)
	}

	var auth transport.AuthMethod
	if cfg.Token != "" {
		auth = &githttp.BasicAuth{Username: "token", Password: cfg.Token}
	}

	if cfg.Remote == "" {
		cfg.Remote = defaultRemote
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = defaultAuthorName
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = defaultAuthorEmail
	}

	return &Manager{
		repoPath:    cfg.RepoPath,
		repo:        repo,
		remote:      cfg.Remote,
		auth:        auth,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		authorName:  cfg.AuthorName,
		authorEmail: cfg.AuthorEmail,
		logger:      logger.With("component", "gitsync"),
	}, nil
}

// Push stages path, commits with message and pushes, retrying the push up
// to MaxRetries times. It reports whether any push attempt succeeded; on
// false the commit still exists locally.
func (m *Manager) Push(path, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stageAndCommit(path, message); err != nil {
		m.logger.Error("stage/commit failed", "path", path, "err", err)
		return false
	}
	return m.pushWithRetry()
}

func (m *Manager) stageAndCommit(path, message string) error {
	wt, err := m.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	rel, err := filepath.Rel(m.repoPath, path)
	if err != nil {
		return fmt.Errorf("relativize %s: %w", path, err)
	}
	if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("stage %s: %w", rel, err)
	}
	m.logger.Info("staged", "file", rel)

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  m.authorName,
			Email: m.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		// A clean tree means the content is already committed.
		if errors.Is(err, git.ErrEmptyCommit) {
			m.logger.Info("nothing to commit", "file", rel)
			return nil
		}
		return fmt.Errorf("commit: %w", err)
	}
	m.logger.Info("committed", "message", message)
	return nil
}

func (m *Manager) pushWithRetry() bool {
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		m.logger.Info("pushing to remote", "attempt", attempt, "max_attempts", m.maxRetries)

		err := m.repo.Push(&git.PushOptions{RemoteName: m.remote, Auth: m.auth})
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			m.logger.Info("push succeeded", "attempt", attempt)
			return true
		}

		m.logger.Warn("push failed", "attempt", attempt, "max_attempts", m.maxRetries, "err", err)
		if attempt < m.maxRetries {
			time.Sleep(m.retryDelay)
		}
	}

	m.logger.Error("push retries exhausted, commit remains local", "attempts", m.maxRetries)
	return false
}

// Pull fetches and merges the remote under the same lock as Push. It
// reports success; a false return means local state may be stale and the
// caller proceeds anyway.
func (m *Manager) Pull() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	wt, err := m.repo.Worktree()
	if err != nil {
		m.logger.Error("worktree unavailable for pull", "err", err)
		return false
	}

	err = wt.Pull(&git.PullOptions{RemoteName: m.remote, Auth: m.auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		m.logger.Warn("pull failed", "err", err)
		return false
	}
	m.logger.Info("pull completed")
	return true
}
