package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/compstash/internal/capture"
	"github.com/vk/compstash/internal/container"
	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/hostlink"
	"github.com/vk/compstash/internal/project"
	"github.com/vk/compstash/internal/rebuild"
	"github.com/vk/compstash/internal/record"
	"github.com/vk/compstash/internal/watch"
)

// shortHashLength is the number of hash characters printed for a commit.
const shortHashLength = 7

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.cmd.Command, "args", a.cmd.Args)

	var err error
	switch a.cmd.Command {
	case CmdResolve:
		err = a.runResolve(a.cmd.Args[0])
	case CmdInit:
		err = a.runInit(ctx)
	case CmdStash:
		err = a.runStash(ctx, a.cmd.Args[0], a.cmd.Args[1])
	case CmdStatus:
		err = a.runStatus(ctx, a.cmd.Args[0])
	case CmdAdd:
		err = a.runAdd(ctx, a.cmd.Args[0], a.cmd.Args[1])
	case CmdCommit:
		err = a.runCommit(ctx, a.cmd.Args[0], a.cmd.Message)
	case CmdLog:
		err = a.runLog(ctx, a.cmd.Args[0])
	case CmdRemote:
		err = a.runRemote(ctx, a.cmd.Args[0], a.cmd.Args[1:])
	case CmdPush:
		remote := project.DefaultRemote
		if len(a.cmd.Args) > 1 {
			remote = a.cmd.Args[1]
		}
		err = a.runPush(ctx, a.cmd.Args[0], remote)
	case CmdCapture:
		err = a.runCapture(ctx, a.cmd.Args[0], a.cmd.Args[1:])
	case CmdRebuild:
		err = a.runRebuild(ctx, a.cmd.Args[0], a.cmd.Args[1])
	default:
		err = fmt.Errorf("unknown command %q", a.cmd.Command)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a.cmd.Command, err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) runResolve(input string) error {
	out, err := a.resolver.Resolve(input)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.outW, out)
	return nil
}

// openProject opens the configured project folder.
func (a *App) openProject(ctx context.Context) (*project.Project, error) {
	return project.New(ctx, a.config.Project.Folder, project.Options{
		RemoteURL:  a.config.Project.RemoteURL,
		Opener:     a.opener,
		Recursable: a.registry.Recursable(),
	})
}

func (a *App) component(ctx context.Context, name string) (*project.Component, error) {
	p, err := a.openProject(ctx)
	if err != nil {
		return nil, err
	}
	return p.RetrieveComponent(ctx, name)
}

func (a *App) runInit(ctx context.Context) error {
	p, err := a.openProject(ctx)
	if err != nil {
		return err
	}
	existed, err := p.GitInit(ctx)
	if err != nil {
		return err
	}
	if existed {
		fmt.Fprintf(a.outW, "Reinitialized existing repository in %s\n", p.Folder())
	} else {
		fmt.Fprintf(a.outW, "Initialized empty repository in %s\n", p.Folder())
		hash, err := p.InitialCommit(ctx)
		if err != nil {
			a.logger.Warn("Initial commit skipped.", "error", err)
			return nil
		}
		fmt.Fprintf(a.outW, "[%s] %s\n", short(hash), project.InitialCommitMessage)
	}

	branches, err := p.Branches(ctx)
	if err != nil {
		return err
	}
	if len(branches) > 0 {
		fmt.Fprintf(a.outW, "Branches: %s\n", strings.Join(branches, ", "))
	}
	return nil
}

func (a *App) runStash(ctx context.Context, name, file string) error {
	path, err := a.resolver.Resolve(file)
	if err != nil {
		return err
	}
	records, err := record.ReadFile(path)
	if err != nil {
		return err
	}
	a.warnUnknownClasses(records)

	p, err := a.openProject(ctx)
	if err != nil {
		return err
	}
	comp, err := p.ImportComponent(ctx, records, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Stashed %d nodes as %s in %s\n", record.Count(records), comp.Name, comp.Folder)
	return nil
}

// warnUnknownClasses logs the classes a later rebuild would reject.
func (a *App) warnUnknownClasses(records []*record.Node) {
	_ = record.Walk(records, func(n *record.Node, _ int) error {
		if _, err := a.registry.Lookup(n.ClassName); err != nil {
			a.logger.Warn("Stash contains an unregistered class.", "path", n.Path, "error", err)
		}
		return nil
	})
}

func (a *App) runStatus(ctx context.Context, name string) error {
	comp, err := a.component(ctx, name)
	if err != nil {
		return err
	}
	if err := a.printStatus(ctx, comp.Container); err != nil {
		return err
	}
	if !a.cmd.Watch {
		return nil
	}

	a.logger.Info("Watching component for changes.", "folder", comp.Folder)
	return watch.Container(ctx, comp.Folder, watch.DefaultDebounce, func(changed []string) {
		a.logger.Debug("Component changed.", "paths", changed)
		if err := a.printStatus(ctx, comp.Container); err != nil {
			a.logger.Error("Failed to refresh status.", "error", err)
		}
	})
}

func (a *App) printStatus(ctx context.Context, c *container.Container) error {
	tracked, err := c.TrackedFiles(ctx)
	if err != nil {
		return err
	}
	untracked, err := c.UntrackedFiles(ctx)
	if err != nil {
		return err
	}
	changes, err := c.ModifiedFiles(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.outW, "Component %s (%s)\n", c.Name, c.Folder)
	fmt.Fprintf(a.outW, "Tracked files: %d\n", len(tracked))
	if len(changes) > 0 {
		fmt.Fprintln(a.outW, "Changes:")
		for _, ch := range changes {
			fmt.Fprintf(a.outW, "  %-9s %s\n", ch.Kind, ch.NewPath)
		}
	}
	if len(untracked) > 0 {
		fmt.Fprintln(a.outW, "Untracked files:")
		for _, p := range untracked {
			fmt.Fprintf(a.outW, "  %s\n", a.relative(c.Folder, p))
		}
	}
	if len(changes) == 0 && len(untracked) == 0 {
		fmt.Fprintln(a.outW, "Nothing to commit, working tree clean")
	}
	return nil
}

func (a *App) relative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (a *App) runAdd(ctx context.Context, name, path string) error {
	path, err := a.resolver.Resolve(path)
	if err != nil {
		return err
	}
	comp, err := a.component(ctx, name)
	if err != nil {
		return err
	}
	added, err := comp.Add(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Staged %s\n", a.relative(comp.Folder, added))
	return nil
}

func (a *App) runCommit(ctx context.Context, name, message string) error {
	comp, err := a.component(ctx, name)
	if err != nil {
		return err
	}
	hash, err := comp.Commit(ctx, message)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "[%s] %s\n", short(hash), firstLine(message))
	return nil
}

func (a *App) runLog(ctx context.Context, name string) error {
	comp, err := a.component(ctx, name)
	if err != nil {
		return err
	}
	commits, err := comp.Log(ctx)
	if err != nil {
		return err
	}
	for _, c := range commits {
		fmt.Fprintf(a.outW, "%s %s %s %s\n", short(c.Hash), c.When.Format(time.RFC3339), c.Author, firstLine(c.Message))
	}
	return nil
}

func (a *App) runRemote(ctx context.Context, name string, args []string) error {
	comp, err := a.component(ctx, name)
	if err != nil {
		return err
	}
	if len(args) == 2 {
		if err := comp.AddRemote(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.outW, "Added remote %s %s\n", args[0], args[1])
		return nil
	}

	remotes, err := comp.Remotes(ctx)
	if err != nil {
		return err
	}
	for _, r := range remotes {
		fmt.Fprintf(a.outW, "%s\t%s\n", r.Name, strings.Join(r.URLs, " "))
	}
	return nil
}

func (a *App) runPush(ctx context.Context, name, remote string) error {
	comp, err := a.component(ctx, name)
	if err != nil {
		return err
	}
	if err := comp.Push(ctx, remote); err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Pushed %s to %s\n", comp.Name, remote)
	return nil
}

// connect dials the configured host and returns it with its release function.
func (a *App) connect(ctx context.Context) (host.Host, func() error, error) {
	opts := hostlink.Options{
		URL:                a.config.Host.URL,
		Namespace:          a.config.Host.Namespace,
		Timeout:            a.config.Host.Timeout,
		InsecureSkipVerify: a.config.Host.InsecureSkipVerify,
	}
	if opts.URL == "" {
		return nil, nil, fmt.Errorf("no host url configured")
	}
	return a.dial(ctx, opts)
}

func (a *App) runCapture(ctx context.Context, name string, paths []string) error {
	h, release, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			a.logger.Warn("Failed to close host connection.", "error", err)
		}
	}()

	selection := make([]host.Node, 0, len(paths))
	for _, p := range paths {
		n, err := h.Lookup(p)
		if err != nil {
			return err
		}
		selection = append(selection, n)
	}

	p, err := a.openProject(ctx)
	if err != nil {
		return err
	}
	records, err := capture.Capture(ctx, selection, capture.Options{
		Recurse:    !a.cmd.NoRecurse,
		Recursable: a.registry.Recursable(),
	})
	if err != nil {
		return err
	}
	comp, err := p.ImportComponent(ctx, records, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Captured %d nodes into %s\n", record.Count(records), comp.Name)
	return nil
}

func (a *App) runRebuild(ctx context.Context, name, targetPath string) error {
	comp, err := a.component(ctx, name)
	if err != nil {
		return err
	}

	h, release, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			a.logger.Warn("Failed to close host connection.", "error", err)
		}
	}()

	target, err := h.Lookup(targetPath)
	if err != nil {
		return err
	}
	created, err := rebuild.Reconstruct(ctx, h, target, comp.Records, rebuild.Options{
		Recurse:  !a.cmd.NoRecurse,
		Registry: a.registry,
	})
	if err != nil {
		return err
	}
	for _, n := range created {
		fmt.Fprintln(a.outW, n.Path())
	}
	return nil
}

func short(hash string) string {
	if len(hash) > shortHashLength {
		return hash[:shortHashLength]
	}
	return hash
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
