// Package daemon runs the bridge process: it owns the instance lock, builds
// the command registry once and serves it on the unix socket until stopped.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/migmoroni/vaudio/internal/commands"
	"github.com/migmoroni/vaudio/internal/dispatch"
	"github.com/migmoroni/vaudio/internal/env"
	"github.com/migmoroni/vaudio/internal/ipc"
	"github.com/migmoroni/vaudio/internal/logger"
	"github.com/migmoroni/vaudio/internal/registry"
	"github.com/migmoroni/vaudio/internal/telemetry"
)

const serviceName = "vaudio-bridge"

// Options configure a Daemon.
type Options struct {
	// Home holds the lock file; the socket defaults to a file under it.
	Home   string
	Socket string

	Workers        int
	WriteTimeout   time.Duration
	MaxMessageSize int

	// Register adds application commands next to the built-in ones.
	Register func(*registry.Builder) error
	// Ready is signalled once the socket accepts connections.
	Ready chan<- struct{}
}

type Daemon struct {
	mu       sync.Mutex
	opts     Options
	lock     *env.BridgeLock
	registry *registry.Registry
}

// NewDaemon builds a daemon controller.
func NewDaemon(opts Options) *Daemon {
	if opts.Socket == "" && opts.Home != "" {
		opts.Socket = env.PathsFor(opts.Home).SocketFile
	}
	return &Daemon{opts: opts}
}

// Socket is the path the daemon listens on.
func (d *Daemon) Socket() string {
	return d.opts.Socket
}

// Registry returns the table being served, or nil before Serve built it.
func (d *Daemon) Registry() *registry.Registry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry
}

// Serve builds the registry and serves it. Blocks until ctx is cancelled.
// A registration conflict fails here, before anything listens.
func (d *Daemon) Serve(ctx context.Context) error {
	if d.opts.Home == "" || d.opts.Socket == "" {
		return errors.New("daemon: home and socket are required")
	}

	// 检查是否已有实例在运行（通过尝试获取锁）
	lock, err := env.AcquireLock(d.opts.Home)
	if err != nil {
		return fmt.Errorf("another instance is already running: %w", err)
	}
	d.mu.Lock()
	d.lock = lock
	d.mu.Unlock()
	defer d.cleanup()

	reg, err := commands.Build(d.opts.Register)
	if err != nil {
		return fmt.Errorf("build command registry: %w", err)
	}
	d.mu.Lock()
	d.registry = reg
	d.mu.Unlock()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Failed to flush traces", "error", err)
		}
	}()

	dispatcher := dispatch.New(reg)
	serverOpts := &ipc.ServerOptions{
		Workers:        d.opts.Workers,
		WriteTimeout:   d.opts.WriteTimeout,
		MaxMessageSize: d.opts.MaxMessageSize,
		Ready:          d.opts.Ready,
	}

	logger.Info("Bridge started", "socket", d.opts.Socket, "commands", reg.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.Serve(gctx, d.opts.Socket, dispatcher, serverOpts)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Bridge shutting down", "cause", context.Cause(gctx))
		return nil
	})
	return g.Wait()
}

// cleanup 清理资源
func (d *Daemon) cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.opts.Socket); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove socket", "socket", d.opts.Socket, "error", err)
	}
	if d.lock != nil {
		d.lock.Release()
		d.lock = nil
	}
}
