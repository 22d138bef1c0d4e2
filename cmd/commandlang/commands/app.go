package commands

import (
	"fmt"
	"io"

	"github.com/AlexanderGrooff/commandlang-go/internal/chat"
	"github.com/AlexanderGrooff/commandlang-go/internal/command"
	"github.com/AlexanderGrooff/commandlang-go/internal/config"
	"github.com/AlexanderGrooff/commandlang-go/internal/dispatch"
	"github.com/AlexanderGrooff/commandlang-go/internal/logging"
	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

// app is one fully wired command environment: the registry, the dispatcher
// replying to out, the renderer and the message everything runs against.
type app struct {
	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	renderer   *commandlang.Renderer
	manager    *command.Manager
	message    *chat.Message
}

// newApp wires the command environment described by cfg. Callers must call
// close once they are done with it.
func newApp(cfg *config.Config, out io.Writer, extra ...commandlang.Option) (*app, error) {
	msg := chat.DemoMessage()
	if cfg.ContextFile != "" {
		var err error
		if msg, err = chat.LoadFixture(cfg.ContextFile); err != nil {
			return nil, err
		}
	}

	reg := dispatch.NewRegistry()
	d := dispatch.New(reg, dispatch.NewWriterSink(out),
		dispatch.WithMaxInFlight(cfg.MaxInFlight),
		dispatch.WithMaxDepth(cfg.MaxDepth),
		dispatch.WithLogger(logging.Component("dispatch")),
	)

	opts := []commandlang.Option{
		commandlang.WithDispatcher(d),
		commandlang.WithLogger(logging.Component("render")),
	}
	if cfg.CacheTemplates > 0 {
		opts = append(opts, commandlang.WithCache(commandlang.NewTemplateCache(cfg.CacheTemplates)))
	}
	renderer := commandlang.New(append(opts, extra...)...)

	a := &app{
		registry:   reg,
		dispatcher: d,
		renderer:   renderer,
		manager:    command.NewManager(reg, renderer, d, logging.Component("command")),
		message:    msg,
	}
	if err := a.loadCommands(cfg); err != nil {
		d.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) loadCommands(cfg *config.Config) error {
	if err := a.manager.RegisterBuiltins(); err != nil {
		return err
	}
	if cfg.CommandsFile != "" {
		defs, err := command.LoadFile(cfg.CommandsFile)
		if err != nil {
			return fmt.Errorf("failed to load commands file: %w", err)
		}
		if err := a.manager.AddAll(defs); err != nil {
			return err
		}
	}
	if cfg.CommandsDir != "" {
		defs, err := command.LoadDir(cfg.CommandsDir)
		if err != nil {
			return fmt.Errorf("failed to load commands dir: %w", err)
		}
		if err := a.manager.AddAll(defs); err != nil {
			return err
		}
	}
	logging.Debug().Int("commands", len(a.registry.List())).Msg("commands registered")
	return nil
}

// close waits for dispatched commands to finish and stops the dispatcher.
func (a *app) close() {
	a.dispatcher.Wait()
	a.dispatcher.Close()
	if dropped, failed := a.dispatcher.Stats(); dropped > 0 || failed > 0 {
		logging.Warn().Int64("dropped", dropped).Int64("failed", failed).Msg("some commands did not complete")
	}
}
