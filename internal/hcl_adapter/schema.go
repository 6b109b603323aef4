package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top level of a compstash.hcl file.
type fileRoot struct {
	Project    *ProjectBlock  `hcl:"project,block"`
	Author     *AuthorBlock   `hcl:"author,block"`
	TokensFile *string        `hcl:"tokens_file,optional"`
	Tokens     hcl.Expression `hcl:"tokens,optional"`
	Recursable []string       `hcl:"recursable,optional"`
	Host       *HostBlock     `hcl:"host,block"`
}

// ProjectBlock is the `project` block.
type ProjectBlock struct {
	Folder    *string `hcl:"folder,optional"`
	RemoteURL string  `hcl:"remote_url,optional"`
}

// AuthorBlock is the `author` block.
type AuthorBlock struct {
	Name  string `hcl:"name,optional"`
	Email string `hcl:"email,optional"`
}

// HostBlock is the `host` block.
type HostBlock struct {
	URL                string  `hcl:"url"`
	Namespace          *string `hcl:"namespace,optional"`
	Timeout            *string `hcl:"timeout,optional"`
	InsecureSkipVerify bool    `hcl:"insecure_skip_verify,optional"`
}
