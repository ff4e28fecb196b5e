package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/migmoroni/vaudio/internal/ipc"
	"github.com/migmoroni/vaudio/internal/registry"
)

var ErrBridgeUnavailable = errors.New("bridge unavailable")

var senderFactory = defaultSenderFactory

func defaultSenderFactory() ipc.Sender {
	return ipc.NewUnixSender(socketPath(), settings.CallTimeout)
}

// SetSenderFactory lets tests replace the sender.
func SetSenderFactory(factory func() ipc.Sender) {
	if factory == nil {
		senderFactory = defaultSenderFactory
		return
	}
	senderFactory = factory
}

// ResetSenderFactory restores the default sender.
func ResetSenderFactory() {
	senderFactory = defaultSenderFactory
}

// registerExtra adds commands to the registry served by `serve` and listed
// by `commands`.
var registerExtra func(*registry.Builder) error

// SetRegisterFunc installs application commands for programs embedding
// this CLI. nil leaves only the built-in commands.
func SetRegisterFunc(fn func(*registry.Builder) error) {
	registerExtra = fn
}

// sendToBridge delivers one request, returning ErrBridgeUnavailable when
// the socket is unreachable. A response carrying a bridge error is returned
// as is; callers decide how to report it.
func sendToBridge(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	if req.Token == "" {
		req.Token = ipc.NewToken()
	}
	resp, err := senderFactory().Send(ctx, req)
	if err != nil {
		if isBridgeUnavailable(err) {
			return ipc.Response{}, ErrBridgeUnavailable
		}
		return ipc.Response{}, fmt.Errorf("ipc send failed: %w", err)
	}
	if resp.Token != req.Token {
		return ipc.Response{}, fmt.Errorf("bridge answered token %q for request %q", resp.Token, req.Token)
	}
	return resp, nil
}

func isBridgeUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	if strings.Contains(err.Error(), "connect failed") || strings.Contains(err.Error(), "no such file or directory") {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
