package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migmoroni/vaudio/internal/commands"
	apperrors "github.com/migmoroni/vaudio/internal/errors"
	"github.com/migmoroni/vaudio/internal/ipc"
	"github.com/migmoroni/vaudio/internal/registry"
	"github.com/migmoroni/vaudio/internal/version"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--home", t.TempDir()}, args...))
	err := root.Execute()
	return out.String(), err
}

func useFakeSender(t *testing.T, fake *ipc.FakeSender) {
	t.Helper()
	SetSenderFactory(func() ipc.Sender { return fake })
	t.Cleanup(ResetSenderFactory)
}

func TestInvoke_PrintsResult(t *testing.T) {
	ok, err := ipc.NewResponse("", "Hello, Ana!")
	require.NoError(t, err)
	fake := &ipc.FakeSender{Response: ok}
	useFakeSender(t, fake)

	out, err := runCLI(t, "invoke", "greet", "--args", `{"name":"Ana"}`)
	require.NoError(t, err)
	assert.Equal(t, "\"Hello, Ana!\"\n", out)

	require.Len(t, fake.Requests, 1)
	req := fake.Requests[0]
	assert.Equal(t, "greet", req.Command)
	assert.JSONEq(t, `{"name":"Ana"}`, string(req.Args))
	assert.NotEmpty(t, req.Token)
}

func TestInvoke_UsesGivenToken(t *testing.T) {
	ok, err := ipc.NewResponse("", nil)
	require.NoError(t, err)
	fake := &ipc.FakeSender{Response: ok}
	useFakeSender(t, fake)

	_, err = runCLI(t, "invoke", "bridge.version", "--token", "t1")
	require.NoError(t, err)
	require.Len(t, fake.Requests, 1)
	assert.Equal(t, "t1", fake.Requests[0].Token)
	assert.Empty(t, fake.Requests[0].Args)
}

func TestInvoke_YAMLOutput(t *testing.T) {
	ok, err := ipc.NewResponse("", map[string]any{"name": "greet", "params": []string{"name"}})
	require.NoError(t, err)
	useFakeSender(t, &ipc.FakeSender{Response: ok})

	out, err := runCLI(t, "invoke", "anything", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: greet")
	assert.Contains(t, out, "- name")
}

func TestInvoke_BridgeErrorIsReturned(t *testing.T) {
	failed := ipc.NewErrorResponse("", apperrors.WithField("name", "expected string, got number", nil))
	useFakeSender(t, &ipc.FakeSender{Response: failed})

	_, err := runCLI(t, "invoke", "greet", "--args", `{"name":42}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrArgumentTypeMismatch)
	assert.Equal(t, "name", apperrors.FieldOf(err))
}

func TestInvoke_EnvelopeOutput(t *testing.T) {
	failed := ipc.NewErrorResponse("", apperrors.New(apperrors.KindCommandNotFound, "unknown command: nope"))
	useFakeSender(t, &ipc.FakeSender{Response: failed})

	out, err := runCLI(t, "invoke", "nope", "--token", "t9", "--envelope")
	assert.ErrorIs(t, err, apperrors.ErrCommandNotFound)

	var resp ipc.Response
	require.NoError(t, json.NewDecoder(strings.NewReader(out)).Decode(&resp))
	assert.Equal(t, "t9", resp.Token)
	assert.False(t, resp.OK)
	assert.Equal(t, string(apperrors.KindCommandNotFound), resp.Error.Kind)
}

func TestInvoke_RejectsBadInput(t *testing.T) {
	fake := &ipc.FakeSender{}
	useFakeSender(t, fake)

	_, err := runCLI(t, "invoke", "greet", "--args", `{"name":`)
	assert.ErrorContains(t, err, "not valid JSON")

	_, err = runCLI(t, "invoke", "greet", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output")

	_, err = runCLI(t, "invoke")
	assert.Error(t, err)

	assert.Empty(t, fake.Requests)
}

func TestInvoke_BridgeUnavailable(t *testing.T) {
	useFakeSender(t, &ipc.FakeSender{Err: fmt.Errorf("ipc: connect failed: %w", context.DeadlineExceeded)})

	_, err := runCLI(t, "invoke", "greet")
	assert.ErrorIs(t, err, ErrBridgeUnavailable)
}

func TestSendToBridge_TokenMismatch(t *testing.T) {
	SetSenderFactory(func() ipc.Sender { return mismatchSender{} })
	t.Cleanup(ResetSenderFactory)

	_, err := sendToBridge(context.Background(), ipc.Request{Command: "greet", Token: "mine"})
	assert.ErrorContains(t, err, "theirs")
}

type mismatchSender struct{}

func (mismatchSender) Send(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	return ipc.Response{Token: "theirs", OK: true}, nil
}

func TestCommands_ListsLocalTable(t *testing.T) {
	SetRegisterFunc(func(b *registry.Builder) error {
		return b.Register("shout", registry.Func(func(ctx context.Context, args struct {
			Text string `json:"text"`
		}) (string, error) {
			return strings.ToUpper(args.Text), nil
		}))
	})
	t.Cleanup(func() { SetRegisterFunc(nil) })

	out, err := runCLI(t, "commands")
	require.NoError(t, err)

	var descs []registry.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &descs))
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{commands.NameCommands, commands.NameVersion, commands.NameEcho, commands.NameGreet, "shout"}, names)
}

func TestCommands_TableOutput(t *testing.T) {
	out, err := runCLI(t, "commands", "-o", "table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "COMMAND")
	assert.Contains(t, out, "(name: string) -> string")
	assert.Contains(t, out, "(value?: any) -> any")
}

func TestCommands_Remote(t *testing.T) {
	listing := []registry.Descriptor{{Name: "greet", Params: []registry.Param{{Name: "name", Type: registry.TypeString, Required: true}}, Result: registry.TypeString}}
	ok, err := ipc.NewResponse("", listing)
	require.NoError(t, err)
	fake := &ipc.FakeSender{Response: ok}
	useFakeSender(t, fake)

	out, err := runCLI(t, "commands", "--remote", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: greet")
	assert.Contains(t, out, "required: true")
	require.Len(t, fake.Requests, 1)
	assert.Equal(t, commands.NameCommands, fake.Requests[0].Command)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Current().String()+"\n", out)

	out, err = runCLI(t, "version", "-o", "json")
	require.NoError(t, err)
	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Current(), info)
}
