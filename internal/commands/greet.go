package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/migmoroni/vaudio/internal/registry"
)

// GreetArgs are the arguments of greet.
type GreetArgs struct {
	Name string `json:"name"`
}

// InvalidNameError is returned by greet for a blank name.
type InvalidNameError struct{}

func (InvalidNameError) Error() string { return "name must not be blank" }
func (InvalidNameError) Kind() string  { return "InvalidName" }

// Greet returns "Hello, <name>!".
func Greet() registry.Handler {
	return registry.Func(func(ctx context.Context, args GreetArgs) (string, error) {
		if strings.TrimSpace(args.Name) == "" {
			return "", InvalidNameError{}
		}
		return fmt.Sprintf("Hello, %s!", args.Name), nil
	})
}
