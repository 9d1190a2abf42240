// Package router turns incoming "cli" envelopes into sub-command invocations
// and always answers the sender with text. A malformed command or a panicking
// handler produces an error reply, never a dropped envelope.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"mod-ark/contract"
	"mod-ark/domain"

	"github.com/samber/lo"
)

// SubCommand handles one named command. args holds the tokens after the
// command name. The returned text is wrapped and sent back to the caller.
type SubCommand func(ctx context.Context, from domain.ParticipantID, args []string) (string, error)

// RawCommand receives the untokenized remainder of the line instead of
// split arguments. Needed when the payload carries significant whitespace,
// such as multi-line display text.
type RawCommand func(ctx context.Context, from domain.ParticipantID, rest string) (string, error)

// envelope processing states, logged for traceability
type state string

const (
	stateReceived   state = "received"
	stateParsed     state = "parsed"
	stateDispatched state = "dispatched"
	stateReplied    state = "replied"
)

// Router owns the sub-command tree of one participant. Registering it on the
// bus makes that participant's "cli" traffic command-routed; other content
// types are acknowledged and ignored.
type Router struct {
	id       domain.ParticipantID
	bus      contract.IBus
	log      *slog.Logger
	commands map[string]SubCommand
	raw      map[string]RawCommand
}

func New(log *slog.Logger, bus contract.IBus, id domain.ParticipantID) *Router {
	return &Router{
		id:       id,
		bus:      bus,
		log:      log,
		commands: make(map[string]SubCommand),
		raw:      make(map[string]RawCommand),
	}
}

func (r *Router) Handle(name string, cmd SubCommand) *Router {
	r.commands[name] = cmd
	return r
}

func (r *Router) HandleRaw(name string, cmd RawCommand) *Router {
	r.raw[name] = cmd
	return r
}

// Attach registers the router as its participant's bus handler.
func (r *Router) Attach() {
	r.bus.Register(r.id, r.onEnvelope)
}

func (r *Router) onEnvelope(ctx context.Context, from domain.ParticipantID, contentType, body string) error {
	if contentType != domain.ContentTypeCLI {
		r.log.Debug("Ignoring non-cli envelope", "from", from, "contentType", contentType)
		return nil
	}

	r.log.Debug("Envelope", "state", stateReceived, "from", from)
	reply := r.process(ctx, from, body)
	if reply == "" {
		// One-way commands (show) answer nobody.
		return nil
	}

	if err := r.bus.Send(ctx, r.id, from, domain.ContentTypeCLI, reply); err != nil {
		// The sender went offline mid-command; nothing left to tell it.
		r.log.Warn("Reply not delivered", "to", from, "error", err)
	}
	r.log.Debug("Envelope", "state", stateReplied, "to", from)
	return nil
}

// process walks received → parsed → dispatched and converts every failure
// into a descriptive reply body.
func (r *Router) process(ctx context.Context, from domain.ParticipantID, body string) (reply string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Sub-command panicked", "from", from, "panic", rec)
			reply = fmt.Sprintf("command failed: %v", rec)
		}
	}()

	name, args, rest, err := parse(body)
	if err != nil {
		return fmt.Sprintf("parse error: %v", err)
	}
	r.log.Debug("Envelope", "state", stateParsed, "command", name)

	if rawCmd, ok := r.raw[name]; ok {
		result, err := rawCmd(ctx, from, rest)
		r.log.Debug("Envelope", "state", stateDispatched, "command", name)
		if err != nil {
			return fmt.Sprintf("%s failed: %v", name, err)
		}
		return result
	}

	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Sprintf("unknown command %q, expected one of: %s", name, strings.Join(r.names(), ", "))
	}

	result, err := cmd(ctx, from, args)
	r.log.Debug("Envelope", "state", stateDispatched, "command", name)
	if err != nil {
		return fmt.Sprintf("%s failed: %v", name, err)
	}
	return result
}

// parse splits a command line into its name, argument tokens, and the raw
// remainder after the name. The generic argument grammar lives with each
// sub-command; the router only picks the dispatch token.
func parse(body string) (string, []string, string, error) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", nil, "", fmt.Errorf("empty command")
	}
	name := fields[0]
	trimmed := strings.TrimLeftFunc(body, unicode.IsSpace)
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, name))
	return name, fields[1:], rest, nil
}

func (r *Router) names() []string {
	names := append(lo.Keys(r.commands), lo.Keys(r.raw)...)
	sort.Strings(names)
	return names
}

// NormalizeLineEndings folds CRLF and bare CR into LF so multi-line show
// payloads render identically on every platform.
func NormalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
