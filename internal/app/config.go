package app

import (
	"errors"
	"fmt"
	"slices"
)

// Commands lists every command and the number of positional arguments it
// takes. A negative maximum means unbounded.
var Commands = map[string]struct{ Min, Max int }{
	CmdResolve: {1, 1},
	CmdInit:    {0, 0},
	CmdStash:   {2, 2},
	CmdStatus:  {1, 1},
	CmdAdd:     {2, 2},
	CmdCommit:  {1, 1},
	CmdLog:     {1, 1},
	CmdRemote:  {1, 3},
	CmdPush:    {1, 2},
	CmdCapture: {2, -1},
	CmdRebuild: {2, 2},
}

const (
	CmdResolve = "resolve"
	CmdInit    = "init"
	CmdStash   = "stash"
	CmdStatus  = "status"
	CmdAdd     = "add"
	CmdCommit  = "commit"
	CmdLog     = "log"
	CmdRemote  = "remote"
	CmdPush    = "push"
	CmdCapture = "capture"
	CmdRebuild = "rebuild"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath    string // compstash.hcl, optional
	ProjectFolder string // overrides the config file
	TokensFile    string // overrides the config file
	OS            string // platform used for token resolution

	LogFormat string
	LogLevel  string

	Command string
	Args    []string

	Message   string // commit
	Watch     bool   // status
	NoRecurse bool   // capture and rebuild
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Command == "" {
		return nil, errors.New("a command is required")
	}
	arity, ok := Commands[cfg.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	n := len(cfg.Args)
	if n < arity.Min || (arity.Max >= 0 && n > arity.Max) {
		return nil, fmt.Errorf("%s: wrong number of arguments (got %d)", cfg.Command, n)
	}
	if cfg.Command == CmdRemote && n == 2 {
		return nil, errors.New("remote: both a name and a url are required to add a remote")
	}
	if cfg.Command == CmdCommit && cfg.Message == "" {
		return nil, errors.New("commit: a message is required (-m)")
	}
	cfg.Args = slices.Clone(cfg.Args)
	return &cfg, nil
}

// CommandNames returns the command names, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(Commands))
	for name := range Commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
