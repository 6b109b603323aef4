// Package project ties a project folder, its own repository and the
// component containers stored beneath it.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk/compstash/internal/capture"
	"github.com/vk/compstash/internal/container"
	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/fsutil"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/record"
	"github.com/vk/compstash/internal/registry"
)

// InitialCommitMessage is the message of the project's first commit.
const InitialCommitMessage = "Initial Commit."

// DefaultRemote is the name given to the configured remote.
const DefaultRemote = "origin"

const generatedNameLength = 7

// Options configures a Project.
type Options struct {
	RemoteURL string
	// Opener creates the project and component repositories.
	Opener container.Opener
	// Recursable lists the classes whose children are captured.
	Recursable registry.ClassSet
	// Now defaults to time.Now.
	Now func() time.Time
}

// Component is a container together with the records it was stashed from.
type Component struct {
	*container.Container
	Records []*record.Node
}

// Project is a project folder and the components created under it.
type Project struct {
	folder     string
	remoteURL  string
	opener     container.Opener
	recursable registry.ClassSet
	now        func() time.Time
	newName    func() string

	repo       container.Repository
	components []*Component
}

// New opens the project at folder. A file path selects its directory. An
// existing project repository is attached.
func New(ctx context.Context, folder string, opts Options) (*Project, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Opener == nil {
		return nil, errors.New("project: no repository opener")
	}

	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("project folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		folder = filepath.Dir(folder)
	}
	folder, err = filepath.Abs(folder)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	p := &Project{
		folder:     folder,
		remoteURL:  opts.RemoteURL,
		opener:     opts.Opener,
		recursable: opts.Recursable.Clone(),
		now:        now,
		newName:    generateName,
	}

	repo, err := opts.Opener.Open(ctx, folder)
	switch {
	case err == nil:
		p.repo = repo
		logger.Info("Project set to existing repository.", "folder", folder)
	case errors.Is(err, faults.ErrRepositoryUnavailable):
		logger.Info("Project opened without a repository.", "folder", folder)
	default:
		return nil, err
	}
	return p, nil
}

func generateName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:generatedNameLength]
}

// Folder returns the project folder.
func (p *Project) Folder() string { return p.folder }

// ComponentsFolder returns the folder holding every component container.
func (p *Project) ComponentsFolder() string {
	return filepath.Join(p.folder, container.ReposDir)
}

// Repository returns the project repository, or nil before GitInit.
func (p *Project) Repository() container.Repository { return p.repo }

// Components returns the components appended during this session.
func (p *Project) Components() []*Component {
	return append([]*Component(nil), p.components...)
}

// GitInit creates the project repository, reporting whether it already
// existed. A configured remote URL is registered as origin.
func (p *Project) GitInit(ctx context.Context) (bool, error) {
	repo, existed, err := p.opener.Init(ctx, p.folder)
	if err != nil {
		return false, err
	}
	p.repo = repo

	if p.remoteURL != "" {
		remotes, err := repo.Remotes(ctx)
		if err != nil {
			return existed, err
		}
		if !hasRemote(remotes, DefaultRemote) {
			if err := repo.AddRemote(ctx, DefaultRemote, p.remoteURL); err != nil {
				return existed, err
			}
		}
	}
	return existed, nil
}

func hasRemote(remotes []container.Remote, name string) bool {
	for _, r := range remotes {
		if r.Name == name {
			return true
		}
	}
	return false
}

// InitialCommit stages every project file outside .git and the component
// folders, and commits them.
func (p *Project) InitialCommit(ctx context.Context) (string, error) {
	if p.repo == nil {
		return "", fmt.Errorf("%w: project %s", faults.ErrRepositoryUnavailable, p.folder)
	}
	files, err := fsutil.FindFiles(p.folder, container.GitDir, container.ReposDir)
	if err != nil {
		return "", fmt.Errorf("failed to list project files: %w", err)
	}
	for _, f := range files {
		rel, err := filepath.Rel(p.folder, f)
		if err != nil {
			return "", err
		}
		if err := p.repo.Add(ctx, filepath.ToSlash(rel)); err != nil {
			return "", err
		}
	}
	return p.repo.Commit(ctx, InitialCommitMessage)
}

// CreateBranch creates a project branch at HEAD.
func (p *Project) CreateBranch(ctx context.Context, name string) error {
	if p.repo == nil {
		return fmt.Errorf("%w: project %s", faults.ErrRepositoryUnavailable, p.folder)
	}
	return p.repo.CreateBranch(ctx, name)
}

// Branches lists the project branches.
func (p *Project) Branches(ctx context.Context) ([]string, error) {
	if p.repo == nil {
		return nil, fmt.Errorf("%w: project %s", faults.ErrRepositoryUnavailable, p.folder)
	}
	return p.repo.Branches(ctx)
}

// AppendComponent captures selection recursively into a new component,
// writes its stash and initializes its repository. An empty name is replaced
// by a generated one.
func (p *Project) AppendComponent(ctx context.Context, selection []host.Node, name string) (*Component, error) {
	records, err := capture.Capture(ctx, selection, capture.Options{Recurse: true, Recursable: p.recursable})
	if err != nil {
		return nil, err
	}
	return p.ImportComponent(ctx, records, name)
}

// ImportComponent stores already captured records as a new component. Only
// classes in the project's recursable set may carry children.
func (p *Project) ImportComponent(ctx context.Context, records []*record.Node, name string) (*Component, error) {
	if name == "" {
		name = p.newName()
	}
	if err := record.Validate(records, p.recursable.Contains); err != nil {
		return nil, err
	}

	c := container.New(p.folder, name, p.opener)
	c.Timestamp = p.now()
	if _, err := c.WriteSnapshot(ctx, records); err != nil {
		return nil, err
	}
	if _, _, err := c.Init(ctx, true); err != nil {
		return nil, err
	}

	comp := &Component{Container: c, Records: records}
	p.components = append(p.components, comp)
	ctxlog.FromContext(ctx).Info("Component added to project.", "component", name, "records", record.Count(records))
	return comp, nil
}

// ComponentFromTimestamp appends a component named after the current time.
func (p *Project) ComponentFromTimestamp(ctx context.Context, selection []host.Node) (*Component, error) {
	return p.AppendComponent(ctx, selection, p.now().Format(container.TimestampLayout))
}

// RetrieveComponent returns the named component from this session, or
// loads it from its stash on disk.
func (p *Project) RetrieveComponent(ctx context.Context, name string) (*Component, error) {
	for _, c := range p.components {
		if c.Name == name {
			return c, nil
		}
	}

	c := container.New(p.folder, name, p.opener)
	records, err := c.ReadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("component %q not found in %s: %w", name, p.ComponentsFolder(), err)
		}
		return nil, fmt.Errorf("component %q: %w", name, err)
	}
	if info, err := os.Stat(c.StashPath); err == nil {
		c.Timestamp = info.ModTime()
	}

	if err := c.Open(ctx); err != nil {
		if !errors.Is(err, faults.ErrRepositoryUnavailable) {
			return nil, err
		}
		ctxlog.FromContext(ctx).Debug("Component has no repository.", "component", name)
	}
	return &Component{Container: c, Records: records}, nil
}
