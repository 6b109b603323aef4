package hcl_adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/compstash/internal/config"
	"github.com/vk/compstash/internal/tokens"
)

// translate converts the decoded HCL schema into the agnostic model. base is
// the directory relative paths are resolved against.
func (l *Loader) translate(ctx context.Context, root *fileRoot, base string) (*config.Model, error) {
	m := config.Default()
	m.Project.Folder = base

	if p := root.Project; p != nil {
		if p.Folder != nil {
			m.Project.Folder = resolvePath(base, *p.Folder)
		}
		m.Project.RemoteURL = p.RemoteURL
	}
	if a := root.Author; a != nil {
		m.Author = config.Author{Name: a.Name, Email: a.Email}
	}
	if root.TokensFile != nil {
		m.TokensFile = resolvePath(base, *root.TokensFile)
	}
	if isExprDefined(ctx, root.Tokens, "tokens") {
		val, diags := root.Tokens.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid tokens: %w", diags)
		}
		table, err := tokensFromCty(val)
		if err != nil {
			return nil, err
		}
		m.Tokens = table
	}
	m.Recursable = root.Recursable

	if h := root.Host; h != nil {
		m.Host.URL = h.URL
		m.Host.InsecureSkipVerify = h.InsecureSkipVerify
		if h.Namespace != nil {
			m.Host.Namespace = *h.Namespace
		}
		if h.Timeout != nil {
			d, err := time.ParseDuration(*h.Timeout)
			if err != nil {
				return nil, fmt.Errorf("failed to parse host timeout: %w", err)
			}
			m.Host.Timeout = d
		}
	}
	return m, nil
}

// tokensFromCty converts `tokens = { name = "value", other = { linux = "..." } }`.
func tokensFromCty(val cty.Value) (tokens.Table, error) {
	table := tokens.Table{}
	if val.IsNull() {
		return table, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("tokens must be known at load time")
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("tokens must be an object, got %s", ty.FriendlyName())
	}

	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()
		entry, err := entryFromCty(v)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", name, err)
		}
		table[name] = entry
	}
	return table, nil
}

func entryFromCty(v cty.Value) (tokens.Entry, error) {
	if v.IsNull() {
		return tokens.Entry{}, fmt.Errorf("value must not be null")
	}
	ty := v.Type()
	switch {
	case ty.Equals(cty.String):
		return tokens.Literal(v.AsString()), nil
	case ty.IsObjectType() || ty.IsMapType():
		perOS := make(map[string]string)
		for it := v.ElementIterator(); it.Next(); {
			k, pv := it.Element()
			if pv.IsNull() || !pv.Type().Equals(cty.String) {
				return tokens.Entry{}, fmt.Errorf("platform %q must be a string", k.AsString())
			}
			perOS[k.AsString()] = pv.AsString()
		}
		return tokens.PerPlatform(perOS), nil
	default:
		return tokens.Entry{}, fmt.Errorf("value must be a string or an object of strings, got %s", ty.FriendlyName())
	}
}
