package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AlexanderGrooff/commandlang-go/internal/chat"
	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingSink collects replies.
type recordingSink struct {
	mu      sync.Mutex
	replies []string
	calls   []*Call
}

func (s *recordingSink) Send(_ context.Context, call *Call, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, text)
	s.calls = append(s.calls, call)
	return nil
}

func (s *recordingSink) Replies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.replies...)
}

func testMessage() *chat.Message {
	admin := &chat.Role{Name: "Admin", Position: 2, Admin: true}
	mod := &chat.Role{Name: "Mod", Position: 1}
	return &chat.Message{
		Author:  &chat.User{Name: "Ann", Discriminator: "0001", Roles: []*chat.Role{mod, admin}},
		Channel: &chat.Channel{Name: "chat"},
	}
}

func echoCommand(name string) *Command {
	return &Command{
		Name: name,
		Handler: func(ctx context.Context, call *Call) error {
			return call.Reply(ctx, name+":"+strings.Join(call.Args, ","))
		},
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(echoCommand("b")))
	require.NoError(t, reg.Register(echoCommand("a")))

	err := reg.Register(echoCommand("a"))
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	assert.ErrorIs(t, reg.Register(&Command{Name: "x"}), ErrInvalidCommand)
	assert.ErrorIs(t, reg.Register(&Command{Handler: echoCommand("y").Handler}), ErrInvalidCommand)
	assert.ErrorIs(t, reg.Register(nil), ErrInvalidCommand)

	replacement := echoCommand("a")
	replacement.Description = "new"
	require.NoError(t, reg.Replace(replacement))
	got, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", got.Description)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)

	assert.True(t, reg.Unregister("a"))
	assert.False(t, reg.Unregister("a"))
	_, ok = reg.Get("a")
	assert.False(t, ok)
}

func TestDispatcher_RunsCommand(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoCommand("echo")))
	sink := &recordingSink{}
	d := New(reg, sink)
	defer d.Close()

	cmd, ok := d.Lookup("echo")
	require.True(t, ok)
	d.Dispatch(testMessage(), cmd, []string{"x", "y"})
	d.Wait()

	assert.Equal(t, []string{"echo:x,y"}, sink.Replies())

	call := sink.calls[0]
	_, err := ulid.Parse(call.ID)
	assert.NoError(t, err, "call IDs are ULIDs")
	assert.Equal(t, 0, call.Depth)

	_, ok = d.Lookup("missing")
	assert.False(t, ok)
}

func TestDispatcher_DoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Command{
		Name: "slow",
		Handler: func(ctx context.Context, call *Call) error {
			close(started)
			<-release
			return nil
		},
	}))
	d := New(reg, &recordingSink{})

	cmd, _ := d.Lookup("slow")
	returned := make(chan struct{})
	go func() {
		d.Dispatch(testMessage(), cmd, nil)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a running command")
	}
	<-started
	close(release)
	d.Close()
}

func TestDispatcher_CapacityDropsInsteadOfBlocking(t *testing.T) {
	release := make(chan struct{})
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Command{
		Name: "slow",
		Handler: func(ctx context.Context, call *Call) error {
			<-release
			return nil
		},
	}))
	var logs bytes.Buffer
	d := New(reg, &recordingSink{}, WithMaxInFlight(1), WithLogger(zerolog.New(zerolog.SyncWriter(&logs))))

	cmd, _ := d.Lookup("slow")
	d.Dispatch(testMessage(), cmd, nil)
	d.Dispatch(testMessage(), cmd, nil)

	close(release)
	d.Close()

	dropped, failed := d.Stats()
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, int64(0), failed)
	assert.Contains(t, logs.String(), "dispatcher at capacity")
}

func TestDispatcher_PermissionDenied(t *testing.T) {
	ran := false
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Command{
		Name:  "ban",
		Check: RequireRole("Owner"),
		Handler: func(ctx context.Context, call *Call) error {
			ran = true
			return nil
		},
	}))
	sink := &recordingSink{}
	var logs bytes.Buffer
	d := New(reg, sink, WithLogger(zerolog.New(zerolog.SyncWriter(&logs))))

	cmd, _ := d.Lookup("ban")
	d.Dispatch(testMessage(), cmd, nil)
	d.Close()

	assert.False(t, ran)
	assert.Equal(t, []string{InsufficientPermissions}, sink.Replies())
	assert.Contains(t, logs.String(), `"kind":"dispatch"`)
	assert.Contains(t, logs.String(), "insufficient permissions")
}

func TestDispatcher_HandlerFailuresAreContained(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Command{
		Name:    "fails",
		Handler: func(ctx context.Context, call *Call) error { return errors.New("boom") },
	}))
	require.NoError(t, reg.Register(&Command{
		Name:    "panics",
		Handler: func(ctx context.Context, call *Call) error { panic("kaboom") },
	}))
	var logs bytes.Buffer
	d := New(reg, &recordingSink{}, WithLogger(zerolog.New(zerolog.SyncWriter(&logs))))

	fails, _ := d.Lookup("fails")
	panics, _ := d.Lookup("panics")
	d.Dispatch(testMessage(), fails, nil)
	d.Dispatch(testMessage(), panics, nil)
	d.Close()

	_, failed := d.Stats()
	assert.Equal(t, int64(2), failed)
	assert.Contains(t, logs.String(), "boom")
	assert.Contains(t, logs.String(), "kaboom")
}

func TestDispatcher_NestingLimit(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoCommand("echo")))
	sink := &recordingSink{}
	d := New(reg, sink, WithMaxDepth(2))
	defer d.Close()

	cmd, _ := d.Lookup("echo")
	msg := testMessage()
	d.Dispatch(msg.Nested(), cmd, nil)
	d.Dispatch(msg.Nested().Nested(), cmd, nil)
	d.Wait()

	assert.Equal(t, []string{"echo:"}, sink.Replies())
	dropped, _ := d.Stats()
	assert.Equal(t, int64(1), dropped)
}

func TestDispatcher_Close(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Command{
		Name: "wait",
		Handler: func(ctx context.Context, call *Call) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	d := New(reg, &recordingSink{})

	cmd, _ := d.Lookup("wait")
	d.Dispatch(testMessage(), cmd, nil)
	d.Close()

	d.Dispatch(testMessage(), cmd, nil)
	d.Wait()
	dropped, failed := d.Stats()
	assert.Equal(t, int64(1), dropped, "dispatches after Close are dropped")
	assert.Equal(t, int64(1), failed, "the cancelled command reports its context error")
}

type foreignCommand struct{}

func (foreignCommand) CommandName() string { return "foreign" }

func TestDispatcher_ForeignCommand(t *testing.T) {
	d := New(NewRegistry(), &recordingSink{})
	defer d.Close()

	d.Dispatch(testMessage(), foreignCommand{}, nil)
	_, failed := d.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestDispatcher_FromTemplate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoCommand("roll")))
	sink := &recordingSink{}
	d := New(reg, sink)
	defer d.Close()

	r := commandlang.New(commandlang.WithDispatcher(d))
	out, err := r.Render(testMessage(), `Rolling... {"roll 2 6"}[if 1](done)`)
	require.NoError(t, err)
	assert.Equal(t, "Rolling... done", out)

	d.Wait()
	assert.Equal(t, []string{"roll:2,6"}, sink.Replies())
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)
	require.NoError(t, sink.Send(context.Background(), nil, "hello"))
	require.NoError(t, sink.Send(context.Background(), nil, "world"))
	assert.Equal(t, "hello\nworld\n", buf.String())
}

func TestChecks(t *testing.T) {
	msg := testMessage()
	nobody := &chat.Message{}
	plain := &chat.Message{Author: &chat.User{Name: "Bob"}}

	assert.True(t, RequireRole("Mod")(msg))
	assert.False(t, RequireRole("Owner")(msg))
	assert.False(t, RequireRole("Mod")(nobody))
	assert.False(t, RequireRole("Mod")(nil))

	assert.True(t, RequireAdmin()(msg))
	assert.False(t, RequireAdmin()(plain))

	assert.True(t, AnyOf(RequireRole("Owner"), RequireAdmin())(msg))
	assert.False(t, AnyOf(RequireRole("Owner"), RequireAdmin())(plain))
	assert.False(t, AnyOf()(msg))

	assert.True(t, AllOf(RequireRole("Mod"), RequireAdmin())(msg))
	assert.False(t, AllOf(RequireRole("Owner"), RequireAdmin())(msg))
	assert.False(t, AllOf(RequireRole("Mod"), RequireAdmin())(plain))
	assert.True(t, AllOf()(msg))
}
