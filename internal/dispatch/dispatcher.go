package dispatch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

// InsufficientPermissions is sent back when a command's check rejects the
// invocation.
const InsufficientPermissions = "Cannot Execute Command: Insufficient Permissions"

// DefaultMaxInFlight bounds concurrently running commands.
const DefaultMaxInFlight = 16

// Sink delivers command replies to wherever the invocation came from.
type Sink interface {
	Send(ctx context.Context, call *Call, text string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, call *Call, text string) error

func (f SinkFunc) Send(ctx context.Context, call *Call, text string) error {
	return f(ctx, call, text)
}

// WriterSink writes every reply as one line to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a WriterSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Send(_ context.Context, _ *Call, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, text)
	return err
}

// Call is one dispatched command execution.
type Call struct {
	// ID is a ULID identifying this execution in logs.
	ID         string
	Command    *Command
	Invocation commandlang.Invocation
	Args       []string
	// Depth counts the dispatches that led here; see Depther.
	Depth int

	d *Dispatcher
}

// Reply sends text back through the dispatcher's sink.
func (c *Call) Reply(ctx context.Context, text string) error {
	return c.d.sink.Send(ctx, c, text)
}

// Depther is implemented by invocations that know how deeply they are
// nested in command dispatches.
type Depther interface {
	Depth() int
}

// Dispatcher runs commands in the background. It implements
// commandlang.Dispatcher: Dispatch never blocks, and a command that cannot be
// started (capacity, nesting limit, permissions) is logged and dropped.
type Dispatcher struct {
	registry *Registry
	sink     Sink
	logger   zerolog.Logger
	maxDepth int

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	dropped atomic.Int64
	failed  atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*dispatcherOptions)

type dispatcherOptions struct {
	logger      zerolog.Logger
	maxInFlight int
	maxDepth    int
}

// WithLogger sets the logger for dispatch failures.
func WithLogger(l zerolog.Logger) Option {
	return func(o *dispatcherOptions) { o.logger = l }
}

// WithMaxInFlight bounds concurrently running commands.
func WithMaxInFlight(n int) Option {
	return func(o *dispatcherOptions) { o.maxInFlight = n }
}

// WithMaxDepth refuses dispatches from invocations nested n or more levels
// deep. 0 means no limit.
func WithMaxDepth(n int) Option {
	return func(o *dispatcherOptions) { o.maxDepth = n }
}

// New creates a Dispatcher running commands from reg and replying to sink.
func New(reg *Registry, sink Sink, opts ...Option) *Dispatcher {
	o := dispatcherOptions{
		logger:      zerolog.Nop(),
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxInFlight < 1 {
		o.maxInFlight = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	group := new(errgroup.Group)
	group.SetLimit(o.maxInFlight)

	return &Dispatcher{
		registry: reg,
		sink:     sink,
		logger:   o.logger,
		maxDepth: o.maxDepth,
		ctx:      ctx,
		cancel:   cancel,
		group:    group,
	}
}

// Lookup implements commandlang.Dispatcher.
func (d *Dispatcher) Lookup(name string) (commandlang.Command, bool) {
	cmd, ok := d.registry.Get(name)
	if !ok {
		return nil, false
	}
	return cmd, true
}

// Dispatch implements commandlang.Dispatcher. It starts cmd in the
// background and returns immediately.
func (d *Dispatcher) Dispatch(inv commandlang.Invocation, cmd commandlang.Command, args []string) {
	command, ok := cmd.(*Command)
	if !ok {
		d.fail(nil, commandlang.DispatchError(nil, "foreign command %q", cmd.CommandName()), "command not owned by this dispatcher")
		return
	}

	call := &Call{
		ID:         ulid.Make().String(),
		Command:    command,
		Invocation: inv,
		Args:       args,
		d:          d,
	}
	if dep, ok := inv.(Depther); ok {
		call.Depth = dep.Depth()
	}

	if d.maxDepth > 0 && call.Depth >= d.maxDepth {
		d.drop(call, "nesting limit reached")
		return
	}
	if d.ctx.Err() != nil {
		d.drop(call, "dispatcher closed")
		return
	}
	if !d.group.TryGo(func() error {
		d.run(call)
		return nil
	}) {
		d.drop(call, "dispatcher at capacity")
	}
}

// run executes one call; it is the body of a dispatcher goroutine.
func (d *Dispatcher) run(call *Call) {
	defer func() {
		if rec := recover(); rec != nil {
			d.fail(call, commandlang.DispatchError(nil, "panic: %v", rec), "command panicked")
		}
	}()

	if call.Command.Check != nil && !call.Command.Check(call.Invocation) {
		d.fail(call, commandlang.DispatchError(commandlang.ErrCommandNotPermitted, "%s", call.Command.Name), "permission denied")
		if err := call.Reply(d.ctx, InsufficientPermissions); err != nil {
			d.fail(call, commandlang.DispatchError(err, "reply failed"), "reply failed")
		}
		return
	}

	d.logger.Debug().
		Str("task", call.ID).
		Str("command", call.Command.Name).
		Strs("args", call.Args).
		Int("depth", call.Depth).
		Msg("running command")

	if err := call.Command.Handler(d.ctx, call); err != nil {
		d.fail(call, commandlang.DispatchError(err, "%s", call.Command.Name), "command failed")
	}
}

func (d *Dispatcher) drop(call *Call, reason string) {
	d.dropped.Add(1)
	d.logger.Warn().
		Str("task", call.ID).
		Str("command", call.Command.Name).
		Int("depth", call.Depth).
		Msg(reason)
}

func (d *Dispatcher) fail(call *Call, err error, msg string) {
	d.failed.Add(1)
	ev := d.logger.Error().Err(err).Stringer("kind", commandlang.KindOf(err))
	if call != nil {
		ev = ev.Str("task", call.ID).Str("command", call.Command.Name)
	}
	ev.Msg(msg)
}

// Stats reports how many dispatches were dropped before starting and how
// many failed while running.
func (d *Dispatcher) Stats() (dropped, failed int64) {
	return d.dropped.Load(), d.failed.Load()
}

// Wait blocks until every dispatched command, including the ones they
// dispatched in turn, has finished.
func (d *Dispatcher) Wait() {
	_ = d.group.Wait()
}

// Close cancels the context handed to running commands, refuses new
// dispatches and waits for the running ones.
func (d *Dispatcher) Close() {
	d.cancel()
	d.Wait()
}

var _ commandlang.Dispatcher = (*Dispatcher)(nil)
