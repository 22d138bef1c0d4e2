package commandlang

import (
	"sync"
)

// testObject is a minimal Object backed by a field map.
type testObject struct {
	name   string
	fields map[Field]interface{}
}

func (o *testObject) Field(f Field) (interface{}, bool) {
	v, ok := o.fields[f]
	return v, ok
}

func (o *testObject) String() string { return o.name }

// newTestInvocation builds Ann (top role Admin) posting in #chat under the
// General category. The channel carries a full-size snowflake ID.
func newTestInvocation() *testObject {
	category := &testObject{name: "General", fields: map[Field]interface{}{
		FieldName: "General",
		FieldID:   3,
	}}
	channel := &testObject{name: "#chat", fields: map[Field]interface{}{
		FieldName:     "chat",
		FieldID:       uint64(123456789012345678),
		FieldCategory: category,
	}}
	role := &testObject{name: "Admin", fields: map[Field]interface{}{
		FieldName:   "Admin",
		FieldID:     7,
		FieldColour: 0x1abc9c,
	}}
	author := &testObject{name: "Ann#0001", fields: map[Field]interface{}{
		FieldName:          "Ann",
		FieldDiscriminator: "0001",
		FieldID:            42,
		FieldNick:          "annie",
		FieldDisplayName:   "annie",
		FieldColour:        Colour(0xff0000),
	}}
	return &testObject{name: "invocation", fields: map[Field]interface{}{
		FieldAuthor:   author,
		FieldRole:     role,
		FieldChannel:  channel,
		FieldCategory: category,
	}}
}

type testCommand string

func (c testCommand) CommandName() string { return string(c) }

type dispatchCall struct {
	name string
	args []string
}

// recordingDispatcher knows a fixed set of command names and records every
// dispatch synchronously.
type recordingDispatcher struct {
	mu       sync.Mutex
	commands map[string]bool
	calls    []dispatchCall
}

func newRecordingDispatcher(names ...string) *recordingDispatcher {
	d := &recordingDispatcher{commands: make(map[string]bool)}
	for _, n := range names {
		d.commands[n] = true
	}
	return d
}

func (d *recordingDispatcher) Lookup(name string) (Command, bool) {
	if d.commands[name] {
		return testCommand(name), true
	}
	return nil, false
}

func (d *recordingDispatcher) Dispatch(_ Invocation, cmd Command, args []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{name: cmd.CommandName(), args: args})
}

func (d *recordingDispatcher) Calls() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}

type panickingDispatcher struct{}

func (panickingDispatcher) Lookup(name string) (Command, bool) { return testCommand(name), true }

func (panickingDispatcher) Dispatch(Invocation, Command, []string) { panic("boom") }
