package commands

import (
	"context"

	"github.com/migmoroni/vaudio/internal/registry"
	"github.com/migmoroni/vaudio/internal/version"
)

// Version reports build information.
func Version() registry.Handler {
	return registry.Func(func(ctx context.Context, _ struct{}) (version.Info, error) {
		return version.Current(), nil
	})
}

type commandList struct {
	descs []registry.Descriptor
}

// listCommands reports the descriptors held by list. The list is filled
// once the registry is built, before any request is served.
func listCommands(list *commandList) registry.Handler {
	return registry.Func(func(ctx context.Context, _ struct{}) ([]registry.Descriptor, error) {
		out := make([]registry.Descriptor, len(list.descs))
		copy(out, list.descs)
		return out, nil
	})
}
