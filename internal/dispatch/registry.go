// Package dispatch holds the command registry and the fire-and-forget
// dispatcher that runs commands named by CommandLang substitutions.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

// Handler runs a command. Returned errors are logged by the dispatcher; they
// never reach the template that triggered the command.
type Handler func(ctx context.Context, call *Call) error

// Check decides whether inv may run a command.
type Check func(inv commandlang.Invocation) bool

// Command is a registered, dispatchable command.
type Command struct {
	Name        string
	Description string
	// Source tells where the command came from: "builtin", "config" or "file".
	Source  string
	Check   Check
	Handler Handler
}

// CommandName implements commandlang.Command.
func (c *Command) CommandName() string { return c.Name }

var (
	ErrInvalidCommand   = errors.New("invalid command")
	ErrDuplicateCommand = errors.New("command already registered")
)

// Registry maps command names to commands. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds cmd. Names must be unique and non-empty.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil || cmd.Name == "" || cmd.Handler == nil {
		return fmt.Errorf("%w: a command needs a name and a handler", ErrInvalidCommand)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Replace adds cmd, overwriting any command of the same name.
func (r *Registry) Replace(cmd *Command) error {
	if cmd == nil || cmd.Name == "" || cmd.Handler == nil {
		return fmt.Errorf("%w: a command needs a name and a handler", ErrInvalidCommand)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name] = cmd
	return nil
}

// Unregister removes a command by name.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[name]; ok {
		delete(r.commands, name)
		return true
	}
	return false
}

// Get returns a specific command by name.
func (r *Registry) Get(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns all commands sorted by name.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	commands := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		commands = append(commands, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(commands, func(i, j int) bool { return commands[i].Name < commands[j].Name })
	return commands
}
