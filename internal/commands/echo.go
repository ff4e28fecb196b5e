package commands

import (
	"context"
	"encoding/json"

	"github.com/migmoroni/vaudio/internal/registry"
)

// EchoArgs are the arguments of echo.
type EchoArgs struct {
	Value json.RawMessage `json:"value,omitempty"`
}

// Echo returns its value unchanged.
func Echo() registry.Handler {
	return registry.Func(func(ctx context.Context, args EchoArgs) (json.RawMessage, error) {
		return args.Value, nil
	})
}
