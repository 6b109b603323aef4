// Package container manages a component folder: its write-once stash file
// and the repository that versions it.
package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/fsutil"
	"github.com/vk/compstash/internal/record"
)

// ReposDir is the project subdirectory that holds every container.
const ReposDir = "component_repos"

// TimestampLayout formats container timestamps and generated names.
const TimestampLayout = "20060102150405"

// GitDir is skipped when listing container files.
const GitDir = ".git"

// Container is one component folder under a project.
type Container struct {
	Name      string
	Timestamp time.Time
	Folder    string
	StashPath string

	opener Opener
	repo   Repository
}

// New describes the container called name under projectFolder. Nothing is
// created on disk until Init or WriteSnapshot.
func New(projectFolder, name string, opener Opener) *Container {
	folder := filepath.Join(projectFolder, ReposDir, name)
	return &Container{
		Name:      name,
		Timestamp: time.Now(),
		Folder:    folder,
		StashPath: filepath.Join(folder, name+".json"),
		opener:    opener,
	}
}

// FromTimestamp creates a container named after the time t.
func FromTimestamp(projectFolder string, t time.Time, opener Opener) *Container {
	c := New(projectFolder, t.Format(TimestampLayout), opener)
	c.Timestamp = t
	return c
}

// Repository returns the attached repository, or nil.
func (c *Container) Repository() Repository {
	return c.repo
}

// Init creates the container repository, or attaches the existing one.
func (c *Container) Init(ctx context.Context, createMissingDirs bool) (Repository, bool, error) {
	if c.repo != nil {
		return c.repo, true, nil
	}
	if c.opener == nil {
		return nil, false, fmt.Errorf("%w: container %s has no repository opener", faults.ErrRepositoryUnavailable, c.Name)
	}

	if _, err := os.Stat(c.Folder); errors.Is(err, os.ErrNotExist) {
		if !createMissingDirs {
			return nil, false, fmt.Errorf("container folder %s does not exist: %w", c.Folder, err)
		}
		if err := os.MkdirAll(c.Folder, 0o755); err != nil {
			return nil, false, fmt.Errorf("failed to create container folder: %w", err)
		}
	} else if err != nil {
		return nil, false, err
	}

	repo, existed, err := c.opener.Init(ctx, c.Folder)
	if err != nil {
		return nil, false, err
	}
	c.repo = repo
	ctxlog.FromContext(ctx).Info("Container repository ready.", "container", c.Name, "already_existed", existed)
	return repo, existed, nil
}

// Open attaches an existing repository without creating one.
func (c *Container) Open(ctx context.Context) error {
	if c.repo != nil {
		return nil
	}
	if c.opener == nil {
		return fmt.Errorf("%w: container %s has no repository opener", faults.ErrRepositoryUnavailable, c.Name)
	}
	repo, err := c.opener.Open(ctx, c.Folder)
	if err != nil {
		return err
	}
	c.repo = repo
	return nil
}

func (c *Container) requireRepo() (Repository, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("%w: container %s", faults.ErrRepositoryUnavailable, c.Name)
	}
	return c.repo, nil
}

// WriteSnapshot writes records to the stash file unless it already exists,
// and returns its path. The stash appears complete or not at all: records
// are encoded first, written to a temporary file and then linked into place.
func (c *Container) WriteSnapshot(ctx context.Context, records []*record.Node) (string, error) {
	logger := ctxlog.FromContext(ctx)
	if _, err := os.Stat(c.StashPath); err == nil {
		logger.Debug("Stash already written; keeping it.", "path", c.StashPath)
		return c.StashPath, nil
	}

	data, err := record.Marshal(records)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c.Folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create container folder: %w", err)
	}

	tmp, err := os.CreateTemp(c.Folder, "."+c.Name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create stash: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write stash: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write stash: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write stash: %w", err)
	}

	err = os.Link(tmp.Name(), c.StashPath)
	if errors.Is(err, os.ErrExist) {
		logger.Debug("Stash already written; keeping it.", "path", c.StashPath)
		return c.StashPath, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to publish stash: %w", err)
	}
	logger.Info("Wrote stash.", "path", c.StashPath, "records", record.Count(records))
	return c.StashPath, nil
}

// ReadSnapshot decodes the stash file.
func (c *Container) ReadSnapshot(_ context.Context) ([]*record.Node, error) {
	return record.ReadFile(c.StashPath)
}

// AllFiles lists every file under the folder, outside .git.
func (c *Container) AllFiles(_ context.Context) ([]string, error) {
	return fsutil.FindFiles(c.Folder, GitDir)
}

// TrackedFiles lists the files known to the repository that exist in the
// working tree, as absolute paths.
func (c *Container) TrackedFiles(ctx context.Context) ([]string, error) {
	repo, err := c.requireRepo()
	if err != nil {
		return nil, err
	}
	rel, err := repo.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(rel))
	for _, p := range rel {
		abs := filepath.Join(c.Folder, filepath.FromSlash(p))
		if _, err := os.Lstat(abs); err != nil {
			// Deleted from disk; ModifiedFiles reports it.
			continue
		}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files, nil
}

// UntrackedFiles lists the files on disk the repository does not track.
func (c *Container) UntrackedFiles(ctx context.Context) ([]string, error) {
	tracked, err := c.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	all, err := c.AllFiles(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(tracked))
	for _, p := range tracked {
		known[p] = struct{}{}
	}
	untracked := []string{}
	for _, p := range all {
		if _, ok := known[p]; !ok {
			untracked = append(untracked, p)
		}
	}
	return untracked, nil
}

// ModifiedFiles lists tracked files whose working copy differs from the index.
func (c *Container) ModifiedFiles(ctx context.Context) ([]Change, error) {
	repo, err := c.requireRepo()
	if err != nil {
		return nil, err
	}
	return repo.Diff(ctx)
}

// Add stages path and returns it cleaned. Relative paths are taken relative
// to the container folder.
func (c *Container) Add(ctx context.Context, path string) (string, error) {
	repo, err := c.requireRepo()
	if err != nil {
		return "", err
	}
	abs := filepath.Clean(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.Folder, abs)
	}
	rel, err := filepath.Rel(c.Folder, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside container folder %s", abs, c.Folder)
	}
	if err := repo.Add(ctx, filepath.ToSlash(rel)); err != nil {
		return "", err
	}
	return abs, nil
}

// Commit commits the staged files.
func (c *Container) Commit(ctx context.Context, message string) (string, error) {
	repo, err := c.requireRepo()
	if err != nil {
		return "", err
	}
	return repo.Commit(ctx, message)
}

// Log returns the commit history, oldest first.
func (c *Container) Log(ctx context.Context) ([]Commit, error) {
	repo, err := c.requireRepo()
	if err != nil {
		return nil, err
	}
	return repo.Log(ctx)
}

// Remotes lists the configured remotes.
func (c *Container) Remotes(ctx context.Context) ([]Remote, error) {
	repo, err := c.requireRepo()
	if err != nil {
		return nil, err
	}
	return repo.Remotes(ctx)
}

// AddRemote registers a remote.
func (c *Container) AddRemote(ctx context.Context, name, url string) error {
	repo, err := c.requireRepo()
	if err != nil {
		return err
	}
	return repo.AddRemote(ctx, name, url)
}

// Push pushes the current branch to remote.
func (c *Container) Push(ctx context.Context, remote string) error {
	repo, err := c.requireRepo()
	if err != nil {
		return err
	}
	return repo.Push(ctx, remote)
}
