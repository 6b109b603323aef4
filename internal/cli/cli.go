package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vk/compstash/internal/app"
)

// DefaultConfigFile is read from the working directory when -config is not
// given and the file exists.
const DefaultConfigFile = "compstash.hcl"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `
compstash - Versioned component stashes for a node-graph host.

Usage:
  compstash [options] <command> [arguments]

Commands:
  resolve <string>                    Resolve path tokens in a string.
  init                                Create the project repository and commit the project files.
  stash <component> <file>            Import a capture file as a new component.
  status <component> [-watch]         Show tracked, modified and untracked component files.
  add <component> <path>              Stage a file in the component repository.
  commit <component> -m <message>     Commit the staged component files.
  log <component>                     Show the component history.
  remote <component> [<name> <url>]   List remotes, or add one.
  push <component> [remote]           Push the component (default remote: origin).
  capture <component> <host-path>...  Capture live host nodes into a new component.
  rebuild <component> <target-path>   Recreate a component under a live host node.

Options:
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("compstash", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the compstash.hcl project configuration.")
	projectFlag := flagSet.String("project", "", "Project folder. Overrides the configuration file.")
	tokensFlag := flagSet.String("tokens", "", "Token table file (JSON or YAML). Overrides the configuration file.")
	osFlag := flagSet.String("os", "", "Platform used for platform-keyed tokens. Defaults to the running platform.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	command := flagSet.Arg(0)
	if _, ok := app.Commands[command]; !ok {
		return nil, false, &ExitError{
			Code:    2,
			Message: fmt.Sprintf("unknown command %q; expected one of: %s", command, strings.Join(app.CommandNames(), ", ")),
		}
	}

	cmdSet := flag.NewFlagSet("compstash "+command, flag.ContinueOnError)
	cmdSet.SetOutput(output)
	message := cmdSet.String("m", "", "Commit message (commit).")
	watchFlag := cmdSet.Bool("watch", false, "Keep watching the component and reprint the status (status).")
	noRecurse := cmdSet.Bool("no-recurse", false, "Do not descend into recursable components (capture, rebuild).")
	positional, err := parseInterleaved(cmdSet, flagSet.Args()[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	configPath := *configFlag
	if configPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configPath = DefaultConfigFile
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:    configPath,
		ProjectFolder: *projectFlag,
		TokensFile:    *tokensFlag,
		OS:            *osFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		Command:       command,
		Args:          positional,
		Message:       *message,
		Watch:         *watchFlag,
		NoRecurse:     *noRecurse,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// parseInterleaved parses flags appearing anywhere among the positional
// arguments, so `commit comp -m msg` and `commit -m msg comp` both work.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
