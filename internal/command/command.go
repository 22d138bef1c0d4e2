// Package command provides custom and built-in chat commands.
//
// Custom commands are CommandLang templates. Invoking one renders its
// template against the invoking message; substitutions inside it may in turn
// dispatch other commands, one nesting level deeper.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/AlexanderGrooff/commandlang-go/internal/chat"
	"github.com/AlexanderGrooff/commandlang-go/internal/dispatch"
	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

// Command sources.
const (
	SourceBuiltin = "builtin"
	SourceConfig  = "config"
	SourceFile    = "file"
	SourceChat    = "chat"
)

// MalformedPrefix starts the reply sent when a custom command's template
// fails to render.
const MalformedPrefix = "Malformed CommandLang syntax: "

var (
	ErrNotFound = errors.New("command not found")
	ErrBuiltin  = errors.New("built-in commands cannot be removed")
)

// Manager owns the commands of one registry and renders custom commands.
type Manager struct {
	registry   *dispatch.Registry
	renderer   *commandlang.Renderer
	dispatcher commandlang.Dispatcher
	logger     zerolog.Logger
}

// NewManager creates a Manager. The renderer should dispatch through
// dispatcher so that commands can call each other.
func NewManager(reg *dispatch.Registry, renderer *commandlang.Renderer, dispatcher commandlang.Dispatcher, logger zerolog.Logger) *Manager {
	return &Manager{
		registry:   reg,
		renderer:   renderer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Add registers a custom command. The template is parsed up front so that
// syntax errors surface when the command is created rather than when it is
// first used.
func (m *Manager) Add(def *Definition) error {
	if def.Name == "" || strings.IndexFunc(def.Name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("invalid command name %q", def.Name)
	}
	if commandlang.HasSyntax(def.Template) {
		if _, err := commandlang.ParseTemplate(def.Template); err != nil {
			return fmt.Errorf("command %s: %w", def.Name, err)
		}
	}
	if def.Source == "" {
		def.Source = SourceChat
	}
	return m.registry.Register(m.customCommand(def))
}

// AddAll registers every definition, stopping at the first failure.
func (m *Manager) AddAll(defs []*Definition) error {
	for _, def := range defs {
		if err := m.Add(def); err != nil {
			return err
		}
	}
	return nil
}

// Remove unregisters a custom command.
func (m *Manager) Remove(name string) error {
	cmd, ok := m.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if cmd.Source == SourceBuiltin {
		return fmt.Errorf("%w: %s", ErrBuiltin, name)
	}
	m.registry.Unregister(name)
	return nil
}

// Invoke treats line as a typed command ("name arg1 arg2") and dispatches
// it. It reports whether a command by that name exists.
func (m *Manager) Invoke(inv commandlang.Invocation, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, ok := m.dispatcher.Lookup(fields[0])
	if !ok {
		return false
	}
	m.dispatcher.Dispatch(inv, cmd, fields[1:])
	return true
}

func (m *Manager) customCommand(def *Definition) *dispatch.Command {
	return &dispatch.Command{
		Name:        def.Name,
		Description: def.Description,
		Source:      def.Source,
		Check:       permission(def),
		Handler:     m.renderHandler(def.Template),
	}
}

// permission builds the check for def: any one of its roles grants access,
// and admin additionally requires the caller to be an administrator.
func permission(def *Definition) dispatch.Check {
	var checks []dispatch.Check
	if len(def.Roles) > 0 {
		roles := make([]dispatch.Check, len(def.Roles))
		for i, role := range def.Roles {
			roles[i] = dispatch.RequireRole(role)
		}
		checks = append(checks, dispatch.AnyOf(roles...))
	}
	if def.AdminOnly {
		checks = append(checks, dispatch.RequireAdmin())
	}
	switch len(checks) {
	case 0:
		return nil
	case 1:
		return checks[0]
	}
	return dispatch.AllOf(checks...)
}

// renderHandler renders template on behalf of the call. Blank output sends
// nothing; a render error is reported back to the channel.
func (m *Manager) renderHandler(template string) dispatch.Handler {
	return func(ctx context.Context, call *dispatch.Call) error {
		out, err := m.renderer.Render(nested(call.Invocation), template)
		if err != nil {
			m.logger.Debug().Err(err).Str("command", call.Command.Name).Msg("custom command failed to render")
			return call.Reply(ctx, MalformedPrefix+err.Error())
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return nil
		}
		return call.Reply(ctx, out)
	}
}

// nested returns the invocation seen by commands dispatched from inside a
// custom command.
func nested(inv commandlang.Invocation) commandlang.Invocation {
	if msg, ok := inv.(*chat.Message); ok && msg != nil {
		return msg.Nested()
	}
	return inv
}
