package container

import (
	"context"
	"time"
)

// Change is one file that differs between the working tree and the index.
type Change struct {
	OldPath string
	NewPath string
	Kind    ChangeKind
}

// ChangeKind classifies a Change.
type ChangeKind string

const (
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
)

// Commit summarises one commit.
type Commit struct {
	Hash    string
	Message string
	Author  string
	When    time.Time
}

// Remote is a named remote repository.
type Remote struct {
	Name string
	URLs []string
}

// Repository is the version-control collaborator owned by a container.
// Paths passed in and returned are relative to the repository root and use
// forward slashes.
type Repository interface {
	Add(ctx context.Context, path string) error
	// Commit records the staged changes and returns the new commit hash.
	// It fails when nothing is staged.
	Commit(ctx context.Context, message string) (string, error)
	// Diff lists working tree files that differ from the index.
	Diff(ctx context.Context) ([]Change, error)
	TrackedFiles(ctx context.Context) ([]string, error)
	// Log returns the history of HEAD, oldest first.
	Log(ctx context.Context) ([]Commit, error)
	Remotes(ctx context.Context) ([]Remote, error)
	AddRemote(ctx context.Context, name, url string) error
	Push(ctx context.Context, remote string) error
	// CreateBranch creates a branch pointing at HEAD.
	CreateBranch(ctx context.Context, name string) error
	// Branches lists the local branch names, sorted.
	Branches(ctx context.Context) ([]string, error)
}

// Opener creates or attaches repositories in a directory.
type Opener interface {
	// Init creates a repository in dir, or opens the existing one and
	// reports alreadyExisted.
	Init(ctx context.Context, dir string) (repo Repository, alreadyExisted bool, err error)
	// Open attaches an existing repository. It fails with
	// faults.ErrRepositoryUnavailable when dir holds none.
	Open(ctx context.Context, dir string) (Repository, error)
}
