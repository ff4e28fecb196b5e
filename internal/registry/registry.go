package registry

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	apperrors "github.com/migmoroni/vaudio/internal/errors"
)

// Descriptor describes one registered command.
type Descriptor struct {
	Name   string  `json:"name" yaml:"name"`
	Params []Param `json:"params" yaml:"params"`
	Result string  `json:"result" yaml:"result"`
}

type entry struct {
	desc    Descriptor
	handler Handler
}

// Builder collects registrations before the bridge accepts requests.
// It is not safe for concurrent use; registration happens at startup.
type Builder struct {
	entries map[string]entry
	sealed  bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]entry)}
}

// Register adds a handler under name. The name must be non-empty, contain no
// whitespace and be unique. A failed registration leaves the builder
// unchanged.
func (b *Builder) Register(name string, h Handler) error {
	if b.sealed {
		return apperrors.Newf(apperrors.KindRegistrySealed, "cannot register %q after Build", name)
	}
	if err := validateName(name); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("registry: handler for %q is nil", name)
	}
	if _, exists := b.entries[name]; exists {
		return apperrors.Newf(apperrors.KindDuplicateCommand, "command %q already registered", name)
	}
	b.entries[name] = entry{
		desc: Descriptor{
			Name:   name,
			Params: h.Params(),
			Result: h.Result(),
		},
		handler: h,
	}
	return nil
}

// MustRegister is Register that panics on error.
func (b *Builder) MustRegister(name string, h Handler) {
	if err := b.Register(name, h); err != nil {
		panic(err)
	}
}

// Build freezes the collected registrations into a Registry. The builder
// rejects registrations afterwards.
func (b *Builder) Build() *Registry {
	b.sealed = true
	table := make(map[string]entry, len(b.entries))
	for name, e := range b.entries {
		table[name] = e
	}
	return &Registry{table: table}
}

func validateName(name string) error {
	if name == "" {
		return apperrors.New(apperrors.KindInvalidCommandName, "command name is empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return apperrors.Newf(apperrors.KindInvalidCommandName, "command name %q contains whitespace", name)
	}
	return nil
}

// Registry is the immutable command table. It is safe for concurrent use
// without locking.
type Registry struct {
	table map[string]entry
}

// Resolve returns the handler registered under exactly name.
func (r *Registry) Resolve(name string) (Handler, error) {
	e, ok := r.table[name]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindCommandNotFound, "command %q is not registered", name)
	}
	return e.handler, nil
}

// Describe returns the descriptor of name.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	e, ok := r.table[name]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(e.desc), true
}

// Descriptors returns a copy of every descriptor sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.table))
	for _, e := range r.table {
		out = append(out, cloneDescriptor(e.desc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.table)
}

func cloneDescriptor(d Descriptor) Descriptor {
	params := make([]Param, len(d.Params))
	copy(params, d.Params)
	d.Params = params
	return d
}
