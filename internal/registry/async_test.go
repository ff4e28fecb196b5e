package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/migmoroni/vaudio/internal/errors"
	"github.com/migmoroni/vaudio/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_AwaitsResult(t *testing.T) {
	res := registry.Go(func() (any, error) { return 42, nil })
	got, err := res.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestGo_PanicCompletesWithHandlerError(t *testing.T) {
	res := registry.Go(func() (any, error) { panic("deferred boom") })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := res.Await(ctx)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindHandlerError, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "handler panicked: deferred boom")
}

func TestAsync_AwaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	res := registry.Go(func() (any, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := res.Await(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
