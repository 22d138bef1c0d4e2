// Package commandlang implements CommandLang, the small template language
// embedded in chat command text. A template mixes literal text with
// conditional blocks and substitutions:
//
//	Hello {a:n}! [if r:n = "Admin"](You may pass.)[else](Go away.)
//
// Conditionals are written [if expr](body), [elif expr](body) and
// [else](body). Substitutions are written {token} or {object:attribute};
// when the resolved text names a registered command, the command is
// dispatched instead of being printed.
package commandlang

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
)

// Command is a dispatchable action found through a Dispatcher.
type Command interface {
	CommandName() string
}

// Dispatcher looks up and runs commands named by substitutions. Dispatch
// must hand the work off and return without waiting for it; failures are
// the dispatcher's to log.
type Dispatcher interface {
	Lookup(name string) (Command, bool)
	Dispatch(inv Invocation, cmd Command, args []string)
}

// DefaultMaxNesting bounds how deeply conditional bodies may nest.
const DefaultMaxNesting = 32

// Renderer renders CommandLang templates. It is safe for concurrent use as
// long as its Dispatcher and Resolver are.
type Renderer struct {
	resolver   Resolver
	dispatcher Dispatcher
	cache      *TemplateCache
	logger     zerolog.Logger
	maxNesting int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDispatcher makes substitutions that name a command dispatch it.
func WithDispatcher(d Dispatcher) Option {
	return func(r *Renderer) { r.dispatcher = d }
}

// WithResolver replaces the ContextResolver.
func WithResolver(res Resolver) Option {
	return func(r *Renderer) { r.resolver = res }
}

// WithCache caches parsed templates.
func WithCache(c *TemplateCache) Option {
	return func(r *Renderer) { r.cache = c }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithMaxNesting overrides DefaultMaxNesting.
func WithMaxNesting(n int) Option {
	return func(r *Renderer) { r.maxNesting = n }
}

// New creates a Renderer. Without options it resolves with ContextResolver
// and never dispatches.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		resolver:   ContextResolver{},
		logger:     zerolog.Nop(),
		maxNesting: DefaultMaxNesting,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Render renders a template with the default Renderer.
func Render(inv Invocation, template string) (string, error) {
	return defaultRenderer.Render(inv, template)
}

// Resolve resolves a single token with the ContextResolver.
func Resolve(inv Invocation, token string) Value {
	return defaultRenderer.Resolve(inv, token)
}

// syntaxPattern finds anything the renderer would have to act on: the start
// of a conditional, a substitution, or an escaped syntax character. The
// header itself is left to the parser, which treats quoted spans as opaque.
var syntaxPattern = regexp.MustCompile(`\[(?:if|elif|else)\b|\{[^{}]*\}|\\[\[\](){}\\]`)

// HasSyntax reports whether template contains any CommandLang syntax.
// Templates without it render to themselves.
func HasSyntax(template string) bool {
	return syntaxPattern.MatchString(template)
}

// Render renders template for inv. Syntax and evaluation errors abort the
// whole render; no partial output is returned.
func (r *Renderer) Render(inv Invocation, template string) (string, error) {
	out, err := r.render(inv, template, 0)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Evaluate reduces expression to a single Value.
func (r *Renderer) Evaluate(inv Invocation, expression string) (Value, error) {
	return evaluateExpression(inv, r.resolver, expression)
}

// Resolve resolves one operand token.
func (r *Renderer) Resolve(inv Invocation, token string) Value {
	return r.resolver.Resolve(inv, token)
}

// render renders template at the given body depth. Only the top-level
// template may take the fast path: bodies were cut out by the parser and
// follow its escaping rules.
func (r *Renderer) render(inv Invocation, template string, depth int) (string, error) {
	if depth == 0 && !HasSyntax(template) {
		return template, nil
	}

	segments, err := r.parse(template)
	if err != nil {
		return "", err
	}
	r.logger.Debug().Int("segments", len(segments)).Int("depth", depth).Msg("rendering template")

	var out strings.Builder
	var chain chainState
	for _, seg := range segments {
		switch {
		case seg.Type == SegmentLiteral:
			chain.reset()
			out.WriteString(seg.Content)
		case seg.Type.IsConditional():
			if r.maxNesting > 0 && depth > r.maxNesting {
				return "", syntaxError(ErrTooDeep, "limit is %d", r.maxNesting)
			}
			text, err := r.handleConditional(inv, seg, &chain, depth)
			if err != nil {
				return "", err
			}
			out.WriteString(text)
		case seg.Type == SegmentSubstitution:
			chain.reset()
			text, err := r.substitute(inv, seg.Content)
			if err != nil {
				return "", err
			}
			out.WriteString(text)
		default:
			return "", fmt.Errorf("unknown segment type %d", seg.Type)
		}
	}
	return out.String(), nil
}

func (r *Renderer) parse(template string) ([]Segment, error) {
	if r.cache != nil {
		if segments, ok := r.cache.Get(template); ok {
			return segments, nil
		}
	}
	segments, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(template, segments)
	}
	return segments, nil
}

// substitute resolves a {inner} block. A value naming a registered command
// dispatches that command and contributes nothing; any other value is
// printed.
func (r *Renderer) substitute(inv Invocation, inner string) (string, error) {
	var val Value
	if object, attribute, ok := splitAttribute(inner); ok {
		obj := r.resolver.Resolve(inv, strings.TrimSpace(object))
		attr := r.resolver.Resolve(inv, strings.TrimSpace(attribute))
		v, err := getAttribute(obj, attr)
		if err != nil {
			var clErr *Error
			if errors.As(err, &clErr) {
				return "", evalError(ErrInvalidAttribute, "invalid sub-attribute {%s}: %s", inner, clErr.Msg)
			}
			return "", evalError(ErrInvalidAttribute, "invalid sub-attribute {%s}", inner)
		}
		val = v
	} else {
		val = r.resolver.Resolve(inv, strings.TrimSpace(unescape(inner)))
	}

	name, args := commandLine(val)
	if r.dispatcher != nil && name != "" {
		if cmd, ok := r.dispatcher.Lookup(name); ok {
			r.dispatch(inv, cmd, args)
			return "", nil
		}
	}
	r.logger.Debug().Str("value", name).Msg("no command registered, substituting value")
	return val.String(), nil
}

// commandLine splits a resolved value into a command name and arguments.
// Only string values containing whitespace carry arguments.
func commandLine(val Value) (string, []string) {
	s, ok := val.Str()
	if !ok || strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return val.String(), nil
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// dispatch hands cmd to the dispatcher. A panicking dispatcher is logged and
// otherwise ignored; it must never break the render.
func (r *Renderer) dispatch(inv Invocation, cmd Command, args []string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("command", cmd.CommandName()).
				Interface("panic", rec).
				Err(DispatchError(nil, "dispatcher panicked")).
				Msg("dispatch failed")
		}
	}()
	r.dispatcher.Dispatch(inv, cmd, args)
}
