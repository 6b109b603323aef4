package config

import (
	"time"

	"github.com/vk/compstash/internal/tokens"
)

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	Project Project
	Author  Author
	// TokensFile is a JSON or YAML token table, merged under Tokens.
	TokensFile string
	Tokens     tokens.Table
	// Recursable overrides the module defaults when non-nil.
	Recursable []string `validate:"omitempty,dive,required"`
	Host       Host
}

// Project locates the project folder and its remote.
type Project struct {
	Folder    string `validate:"required"`
	RemoteURL string `validate:"omitempty,url|startswith=git@"`
}

// Author is the identity recorded on commits.
type Author struct {
	Name  string
	Email string `validate:"omitempty,email"`
}

// Host describes how to reach a live host application.
type Host struct {
	URL                string        `validate:"omitempty,url"`
	Namespace          string        `validate:"omitempty,startswith=/"`
	Timeout            time.Duration `validate:"gte=0"`
	InsecureSkipVerify bool
}

// Default returns the configuration used when no file is given.
func Default() *Model {
	return &Model{
		Project: Project{Folder: "."},
		Tokens:  tokens.Table{},
		Host: Host{
			Namespace: "/",
			Timeout:   10 * time.Second,
		},
	}
}
