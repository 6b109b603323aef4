// Package app contains the application logic behind the compstash commands.
// It wires the configuration, class registry, token resolver, project and
// host bridge together, decoupled from the CLI entrypoint.
package app
