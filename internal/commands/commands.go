// Package commands contains the backend operations the UI layer may invoke.
package commands

import (
	"github.com/migmoroni/vaudio/internal/registry"
)

// Command names.
const (
	NameGreet    = "greet"
	NameEcho     = "echo"
	NameVersion  = "bridge.version"
	NameCommands = "bridge.commands"
)

// Register adds every built-in command to b.
func Register(b *registry.Builder) error {
	for _, c := range []struct {
		name string
		h    registry.Handler
	}{
		{NameGreet, Greet()},
		{NameEcho, Echo()},
		{NameVersion, Version()},
	} {
		if err := b.Register(c.name, c.h); err != nil {
			return err
		}
	}
	return nil
}

// Build registers the built-in commands plus extra, then adds the
// introspection command describing the final table.
func Build(extra func(*registry.Builder) error) (*registry.Registry, error) {
	b := registry.NewBuilder()
	if err := Register(b); err != nil {
		return nil, err
	}
	if extra != nil {
		if err := extra(b); err != nil {
			return nil, err
		}
	}
	// describe the table once it is complete, including bridge.commands itself
	listing := &commandList{}
	if err := b.Register(NameCommands, listCommands(listing)); err != nil {
		return nil, err
	}
	reg := b.Build()
	listing.descs = reg.Descriptors()
	return reg, nil
}
