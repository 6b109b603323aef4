// Package gitrepo implements container.Repository on top of go-git.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/vk/compstash/internal/container"
	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/faults"
)

// ErrNothingToCommit is wrapped in the commit failure when the index holds
// no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author is the identity recorded on commits.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor is used when no author is configured.
var DefaultAuthor = Author{Name: "compstash", Email: "compstash@localhost"}

// Opener creates and opens git repositories.
type Opener struct {
	Author Author
	// Now stamps commits. Defaults to time.Now.
	Now func() time.Time
}

var _ container.Opener = (*Opener)(nil)

// NewOpener returns an Opener committing as author. An empty author falls
// back to DefaultAuthor.
func NewOpener(author Author) *Opener {
	if author.Name == "" {
		author.Name = DefaultAuthor.Name
	}
	if author.Email == "" {
		author.Email = DefaultAuthor.Email
	}
	return &Opener{Author: author, Now: time.Now}
}

// Init implements container.Opener.
func (o *Opener) Init(ctx context.Context, dir string) (container.Repository, bool, error) {
	logger := ctxlog.FromContext(ctx)
	r, err := git.PlainInit(dir, false)
	existed := false
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		existed = true
		r, err = git.PlainOpen(dir)
	}
	if err != nil {
		return nil, false, &faults.RepositoryCommandError{Command: "init", Err: err}
	}
	logger.Debug("Initialized repository.", "dir", dir, "already_existed", existed)
	return o.wrap(dir, r), existed, nil
}

// Open implements container.Opener.
func (o *Opener) Open(ctx context.Context, dir string) (container.Repository, error) {
	r, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: no repository in %s", faults.ErrRepositoryUnavailable, dir)
	}
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "open", Err: err}
	}
	ctxlog.FromContext(ctx).Debug("Opened repository.", "dir", dir)
	return o.wrap(dir, r), nil
}

func (o *Opener) wrap(dir string, r *git.Repository) *Repo {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &Repo{dir: dir, repo: r, author: o.Author, now: now}
}

// Repo is a git repository with a working tree.
type Repo struct {
	dir    string
	repo   *git.Repository
	author Author
	now    func() time.Time
}

var _ container.Repository = (*Repo)(nil)

// Dir returns the working tree root.
func (r *Repo) Dir() string { return r.dir }

func (r *Repo) worktree(command string) (*git.Worktree, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: command, Err: err}
	}
	return wt, nil
}

// Add implements container.Repository.
func (r *Repo) Add(ctx context.Context, path string) error {
	wt, err := r.worktree("add")
	if err != nil {
		return err
	}
	if _, err := wt.Add(path); err != nil {
		return &faults.RepositoryCommandError{Command: "add " + path, Err: err}
	}
	ctxlog.FromContext(ctx).Debug("Staged file.", "dir", r.dir, "path", path)
	return nil
}

// Commit implements container.Repository.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	wt, err := r.worktree("commit")
	if err != nil {
		return "", err
	}
	status, err := wt.Status()
	if err != nil {
		return "", &faults.RepositoryCommandError{Command: "status", Err: err}
	}
	if !hasStaged(status) {
		return "", &faults.RepositoryCommandError{Command: "commit", Err: ErrNothingToCommit}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: r.author.Name, Email: r.author.Email, When: r.now()},
	})
	if err != nil {
		return "", &faults.RepositoryCommandError{Command: "commit", Err: err}
	}
	ctxlog.FromContext(ctx).Info("Committed.", "dir", r.dir, "hash", hash.String())
	return hash.String(), nil
}

func hasStaged(status git.Status) bool {
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true
		}
	}
	return false
}

// Diff implements container.Repository.
func (r *Repo) Diff(_ context.Context) ([]container.Change, error) {
	wt, err := r.worktree("diff")
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "status", Err: err}
	}

	changes := []container.Change{}
	for path, s := range status {
		var kind container.ChangeKind
		switch s.Worktree {
		case git.Modified:
			kind = container.Modified
		case git.Deleted:
			kind = container.Deleted
		default:
			continue
		}
		changes = append(changes, container.Change{OldPath: path, NewPath: path, Kind: kind})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].OldPath < changes[j].OldPath })
	return changes, nil
}

// TrackedFiles implements container.Repository.
func (r *Repo) TrackedFiles(_ context.Context) ([]string, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "ls-files", Err: err}
	}
	files := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		files = append(files, e.Name)
	}
	sort.Strings(files)
	return files, nil
}

// Log implements container.Repository.
func (r *Repo) Log(_ context.Context) ([]container.Commit, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []container.Commit{}, nil
	}
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "log", Err: err}
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "log", Err: err}
	}
	defer iter.Close()

	var commits []container.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, container.Commit{
			Hash:    c.Hash.String(),
			Message: strings.TrimSpace(c.Message),
			Author:  c.Author.Name,
			When:    c.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "log", Err: err}
	}

	// git walks newest first
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	if commits == nil {
		commits = []container.Commit{}
	}
	return commits, nil
}

// Remotes implements container.Repository.
func (r *Repo) Remotes(_ context.Context) ([]container.Remote, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "remote", Err: err}
	}
	out := make([]container.Remote, 0, len(remotes))
	for _, rm := range remotes {
		cfg := rm.Config()
		out = append(out, container.Remote{Name: cfg.Name, URLs: append([]string(nil), cfg.URLs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddRemote implements container.Repository.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	if err != nil {
		return &faults.RepositoryCommandError{Command: "remote add " + name, Err: err}
	}
	ctxlog.FromContext(ctx).Info("Added remote.", "dir", r.dir, "name", name, "url", url)
	return nil
}

// Push implements container.Repository.
func (r *Repo) Push(ctx context.Context, remote string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{RemoteName: remote})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		ctxlog.FromContext(ctx).Info("Remote already up to date.", "remote", remote)
		return nil
	}
	if err != nil {
		return &faults.RepositoryCommandError{Command: "push " + remote, Err: err}
	}
	ctxlog.FromContext(ctx).Info("Pushed.", "dir", r.dir, "remote", remote)
	return nil
}

// CreateBranch implements container.Repository.
func (r *Repo) CreateBranch(ctx context.Context, name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return &faults.RepositoryCommandError{Command: "branch " + name, Err: err}
	}
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(refName, false); err == nil {
		return &faults.RepositoryCommandError{Command: "branch " + name, Err: fmt.Errorf("branch %q already exists", name)}
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
		return &faults.RepositoryCommandError{Command: "branch " + name, Err: err}
	}
	ctxlog.FromContext(ctx).Info("Created branch.", "dir", r.dir, "branch", name)
	return nil
}

// Branches implements container.Repository.
func (r *Repo) Branches(_ context.Context) ([]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "branch", Err: err}
	}
	defer iter.Close()
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, &faults.RepositoryCommandError{Command: "branch", Err: err}
	}
	sort.Strings(names)
	return names, nil
}
