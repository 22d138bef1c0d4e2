package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexanderGrooff/commandlang-go/internal/dispatch"
)

// RegisterBuiltins registers echo, commands, addcommand and removecommand.
func (m *Manager) RegisterBuiltins() error {
	builtins := []*dispatch.Command{
		{
			Name:        "echo",
			Description: "Repeat the arguments",
			Handler:     echo,
		},
		{
			Name:        "commands",
			Description: "List the available commands",
			Handler:     m.listCommands,
		},
		{
			Name:        "addcommand",
			Description: "Create a custom command: addcommand <name> <template>",
			Check:       dispatch.RequireAdmin(),
			Handler:     m.addCommand,
		},
		{
			Name:        "removecommand",
			Description: "Delete a custom command: removecommand <name>",
			Check:       dispatch.RequireAdmin(),
			Handler:     m.removeCommand,
		},
	}
	for _, cmd := range builtins {
		cmd.Source = SourceBuiltin
		if err := m.registry.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func echo(ctx context.Context, call *dispatch.Call) error {
	text := strings.Join(call.Args, " ")
	if text == "" {
		return nil
	}
	return call.Reply(ctx, text)
}

func (m *Manager) listCommands(ctx context.Context, call *dispatch.Call) error {
	var sb strings.Builder
	for i, cmd := range m.registry.List() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(cmd.Name)
		if cmd.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(cmd.Description)
		}
	}
	return call.Reply(ctx, sb.String())
}

func (m *Manager) addCommand(ctx context.Context, call *dispatch.Call) error {
	if len(call.Args) < 2 {
		return call.Reply(ctx, "Usage: addcommand <name> <template>")
	}
	def := &Definition{
		Name:     call.Args[0],
		Template: strings.Join(call.Args[1:], " "),
		Source:   SourceChat,
	}
	if err := m.Add(def); err != nil {
		return call.Reply(ctx, fmt.Sprintf("Could not add command %s: %v", def.Name, err))
	}
	return call.Reply(ctx, fmt.Sprintf("Command %s added", def.Name))
}

func (m *Manager) removeCommand(ctx context.Context, call *dispatch.Call) error {
	if len(call.Args) != 1 {
		return call.Reply(ctx, "Usage: removecommand <name>")
	}
	if err := m.Remove(call.Args[0]); err != nil {
		return call.Reply(ctx, fmt.Sprintf("Could not remove command: %v", err))
	}
	return call.Reply(ctx, fmt.Sprintf("Command %s removed", call.Args[0]))
}
