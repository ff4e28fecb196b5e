package registry_test

import (
	"context"
	"sync"
	"testing"

	apperrors "github.com/migmoroni/vaudio/internal/errors"
	"github.com/migmoroni/vaudio/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nameArgs struct {
	Name string `json:"name"`
}

func constHandler(out string) registry.Handler {
	return registry.Func(func(ctx context.Context, _ struct{}) (string, error) {
		return out, nil
	})
}

func TestRegistry_RegisterResolve(t *testing.T) {
	b := registry.NewBuilder()
	handlers := map[string]registry.Handler{
		"greet":      constHandler("greet"),
		"echo":       constHandler("echo"),
		"bridge.ver": constHandler("ver"),
	}
	for name, h := range handlers {
		require.NoError(t, b.Register(name, h))
	}
	reg := b.Build()
	assert.Equal(t, len(handlers), reg.Len())

	for name, want := range handlers {
		got, err := reg.Resolve(name)
		require.NoError(t, err)
		assert.Same(t, want, got, "resolve(%q) should return the registered handler", name)
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	b := registry.NewBuilder()
	b.MustRegister("greet", constHandler("hi"))
	reg := b.Build()

	for _, name := range []string{"missing", "Greet", "greet ", ""} {
		h, err := reg.Resolve(name)
		assert.Nil(t, h)
		assert.ErrorIs(t, err, apperrors.ErrCommandNotFound, "name %q", name)
	}
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	b := registry.NewBuilder()
	first := constHandler("first")
	second := constHandler("second")

	require.NoError(t, b.Register("dup", first))
	err := b.Register("dup", second)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCommand)

	reg := b.Build()
	got, err := reg.Resolve("dup")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	b := registry.NewBuilder()
	b.MustRegister("dup", constHandler("a"))
	assert.Panics(t, func() { b.MustRegister("dup", constHandler("b")) })
}

func TestRegistry_InvalidRegistrations(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		handler registry.Handler
		kind    error
	}{
		{name: "empty name", cmd: "", handler: constHandler("x"), kind: apperrors.ErrInvalidCommandName},
		{name: "whitespace name", cmd: "say hi", handler: constHandler("x"), kind: apperrors.ErrInvalidCommandName},
		{name: "nil handler", cmd: "nil", handler: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := registry.NewBuilder()
			err := b.Register(tt.cmd, tt.handler)
			require.Error(t, err)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
			}
			assert.Equal(t, 0, b.Build().Len())
		})
	}
}

func TestRegistry_SealedAfterBuild(t *testing.T) {
	b := registry.NewBuilder()
	b.MustRegister("greet", constHandler("hi"))
	reg := b.Build()

	err := b.Register("late", constHandler("late"))
	assert.ErrorIs(t, err, apperrors.ErrRegistrySealed)

	_, err = reg.Resolve("late")
	assert.ErrorIs(t, err, apperrors.ErrCommandNotFound)
}

func TestRegistry_DescriptorsSortedAndCopied(t *testing.T) {
	b := registry.NewBuilder()
	b.MustRegister("greet", registry.Func(func(ctx context.Context, a nameArgs) (string, error) {
		return "Hello, " + a.Name + "!", nil
	}))
	b.MustRegister("echo", constHandler("x"))
	reg := b.Build()

	descs := reg.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "echo", descs[0].Name)
	assert.Equal(t, "greet", descs[1].Name)
	assert.Equal(t, []registry.Param{{Name: "name", Type: registry.TypeString, Required: true}}, descs[1].Params)
	assert.Equal(t, registry.TypeString, descs[1].Result)

	descs[1].Params[0].Name = "mutated"
	d, ok := reg.Describe("greet")
	require.True(t, ok)
	assert.Equal(t, "name", d.Params[0].Name)
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	b := registry.NewBuilder()
	b.MustRegister("greet", constHandler("hi"))
	reg := b.Build()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h, err := reg.Resolve("greet")
				if err != nil || h == nil {
					t.Errorf("resolve failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
