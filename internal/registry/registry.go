package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/suggest"
)

// Constructor creates a node of one class as a child of parent.
type Constructor func(parent host.Node, name string) (host.Node, error)

// Module is the interface that all class modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered constructors and the recursable class set
// for a single application instance.
type Registry struct {
	classes    map[string]Constructor
	recursable ClassSet
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		classes:    make(map[string]Constructor),
		recursable: NewClassSet(),
	}
}

// RegisterClass registers the constructor for a class name. Registering the
// same name twice is a programmer error and panics.
func (r *Registry) RegisterClass(className string, ctor Constructor) {
	if _, exists := r.classes[className]; exists {
		panic(fmt.Sprintf("class '%s' already registered", className))
	}
	if ctor == nil {
		panic(fmt.Sprintf("class '%s' registered with nil constructor", className))
	}
	slog.Debug("Registering node class.", "class", className)
	r.classes[className] = ctor
}

// RegisterHostClasses registers classes whose constructor simply asks the
// parent node to create a child of that class.
func (r *Registry) RegisterHostClasses(classNames ...string) {
	for _, name := range classNames {
		r.RegisterClass(name, HostConstructor(name))
	}
}

// HostConstructor returns a Constructor delegating to parent.Create.
func HostConstructor(className string) Constructor {
	return func(parent host.Node, name string) (host.Node, error) {
		return parent.Create(className, name)
	}
}

// MarkRecursable adds class names to the recursable set.
func (r *Registry) MarkRecursable(classNames ...string) {
	for _, name := range classNames {
		r.recursable[name] = struct{}{}
	}
}

// SetRecursable replaces the recursable set, e.g. from configuration.
func (r *Registry) SetRecursable(set ClassSet) {
	r.recursable = set.Clone()
}

// Recursable returns a copy of the recursable class set.
func (r *Registry) Recursable() ClassSet {
	return r.recursable.Clone()
}

// Lookup returns the constructor for className.
func (r *Registry) Lookup(className string) (Constructor, error) {
	ctor, ok := r.classes[className]
	if !ok {
		return nil, &faults.UnknownClassError{
			ClassName:  className,
			Suggestion: suggest.Closest(className, r.Classes()),
		}
	}
	return ctor, nil
}

// Has reports whether className is registered.
func (r *Registry) Has(className string) bool {
	_, ok := r.classes[className]
	return ok
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
