// Package ui is the terminal view participant. It owns the display queue and
// the provider table; everything else talks to it through the bus.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"mod-ark/ark"
	"mod-ark/contract"
	"mod-ark/domain"
	"mod-ark/observability"
	"mod-ark/projection"
	"mod-ark/router"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

const (
	drainInterval = 100 * time.Millisecond
	drainBatch    = 50
)

// Terminal is the bus participant behind domain.TerminalUIID. Incoming
// display text is queued and drained at a bounded rate by the Run worker, so
// producers on any goroutine never touch the output writer directly.
type Terminal struct {
	log      *slog.Logger
	bus      contract.IBus
	presence contract.IPresence
	repo     contract.IStateRepository
	stats    *observability.BusStats
	ark      *ark.Orchestrator
	out      io.Writer

	mu        sync.Mutex
	inbox     []string
	providers []domain.CommandProvider
}

func NewTerminal(
	log *slog.Logger,
	bus contract.IBus,
	presence contract.IPresence,
	repo contract.IStateRepository,
	stats *observability.BusStats,
	orchestrator *ark.Orchestrator,
	out io.Writer,
) *Terminal {
	return &Terminal{
		log:      log,
		bus:      bus,
		presence: presence,
		repo:     repo,
		stats:    stats,
		ark:      orchestrator,
		out:      out,
	}
}

// Attach registers the terminal's command tree on the bus and subscribes it
// to presence changes. Call once, before the supervisor starts Run.
func (t *Terminal) Attach() {
	r := router.New(t.log, t.bus, domain.TerminalUIID)
	r.Handle("online", t.cmdOnline)
	r.Handle("offline", t.cmdOffline)
	r.HandleRaw("show", t.cmdShow)
	r.HandleRaw("backup", t.cmdBackup)
	r.Handle("restore", t.cmdRestore)
	r.Handle("providers", t.cmdProviders)
	r.Handle("stats", t.cmdStats)
	r.Attach()

	t.presence.SubscribeChanges(t.onPresence)
	t.onPresence(t.presence.Snapshot())
}

// Post queues one display message directly, bypassing the bus. Used by the
// host for lines that must appear even while the bus is being torn down.
func (t *Terminal) Post(text string) {
	t.mu.Lock()
	t.inbox = append(t.inbox, text)
	t.mu.Unlock()
}

// Run drains the inbox at a bounded rate. Implements contract.Worker.
func (t *Terminal) Run(ctx context.Context) error {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.drain()
			return ctx.Err()
		case <-ticker.C:
			t.drain()
		}
	}
}

// drain pops at most drainBatch queued messages and writes them out. The
// bound keeps one chatty producer from starving keyboard echo.
func (t *Terminal) drain() {
	t.mu.Lock()
	n := len(t.inbox)
	if n > drainBatch {
		n = drainBatch
	}
	batch := t.inbox[:n:n]
	t.inbox = t.inbox[n:]
	t.mu.Unlock()

	for _, msg := range batch {
		fmt.Fprintln(t.out, colorize(msg))
	}
}

// onPresence rebuilds the provider list from a complete presence snapshot.
func (t *Terminal) onPresence(online []domain.ParticipantID) {
	providers := projection.BuildProviders(online, t.lookupName)

	t.mu.Lock()
	t.providers = providers
	t.mu.Unlock()
}

// lookupName resolves a participant id to the display name recorded in the
// state repository: steam ids match on external id, local ids on mod name.
func (t *Terminal) lookupName(id domain.ParticipantID) string {
	mods, err := t.repo.KnownMods()
	if err != nil {
		t.log.Warn("Display-name lookup failed", "participant", id, "error", err)
		return ""
	}

	local := id.LocalID()
	if id.Origin() == domain.OriginSteam {
		external, err := strconv.ParseUint(local, 10, 64)
		if err != nil {
			return ""
		}
		for _, mod := range mods {
			if mod.ExternalID == external {
				return mod.DisplayName
			}
		}
		return ""
	}
	for _, mod := range mods {
		if strings.EqualFold(mod.Name, local) {
			return mod.DisplayName
		}
	}
	return ""
}

func (t *Terminal) cmdOnline(_ context.Context, _ domain.ParticipantID, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: online <participantId>")
	}
	id := domain.ParticipantID(args[0])
	t.presence.Online(id)
	t.Post(fmt.Sprintf("%s is online", id))
	return fmt.Sprintf("online: %s", id), nil
}

func (t *Terminal) cmdOffline(_ context.Context, _ domain.ParticipantID, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: offline <participantId>")
	}
	id := domain.ParticipantID(args[0])
	t.presence.Offline(id)
	t.Post(fmt.Sprintf("%s went offline", id))
	return fmt.Sprintf("offline: %s", id), nil
}

// cmdShow is one-way: the empty reply tells the router to answer nobody.
func (t *Terminal) cmdShow(_ context.Context, _ domain.ParticipantID, rest string) (string, error) {
	t.Post(router.NormalizeLineEndings(rest))
	return "", nil
}

func (t *Terminal) cmdBackup(_ context.Context, _ domain.ParticipantID, rest string) (string, error) {
	if rest == "" {
		return "", fmt.Errorf("usage: backup <name>")
	}
	return t.ark.Backup(rest)
}

// cmdRestore starts the restore in the background; progress arrives through
// show messages while the caller gets an immediate acknowledgment. Bus and
// display state stay untouched by the restore goroutine itself.
func (t *Terminal) cmdRestore(ctx context.Context, from domain.ParticipantID, args []string) (string, error) {
	confirmed := false
	for _, arg := range args {
		switch arg {
		case "--yes", "-y":
			confirmed = true
		default:
			return "", fmt.Errorf("unknown flag %q, usage: restore [--yes|-y]", arg)
		}
	}

	go func() {
		result, err := t.ark.Restore(ctx, confirmed)
		if err != nil {
			t.Post(fmt.Sprintf("Restore failed: %v", err))
			return
		}
		t.Post(result)
	}()
	return "Restore started, progress will follow.", nil
}

func (t *Terminal) cmdProviders(_ context.Context, _ domain.ParticipantID, _ []string) (string, error) {
	t.mu.Lock()
	providers := append([]domain.CommandProvider(nil), t.providers...)
	t.mu.Unlock()

	if len(providers) == 0 {
		return "no command providers online", nil
	}

	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Short", "Name", "Participant"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, p := range providers {
		table.Append([]string{p.ShortID, p.DisplayName, p.ParticipantID.String()})
	}
	table.Render()
	return b.String(), nil
}

func (t *Terminal) cmdStats(_ context.Context, _ domain.ParticipantID, _ []string) (string, error) {
	return t.stats.Collect().Render(), nil
}

// colorize picks a color per message kind: failures red, presence changes
// yellow, everything else the plain terminal green.
func colorize(msg string) string {
	switch {
	case strings.Contains(msg, "FAILED") || strings.Contains(msg, "failed"):
		return color.New(color.FgRed).Render(msg)
	case strings.HasSuffix(msg, "is online") || strings.HasSuffix(msg, "went offline"):
		return color.New(color.FgYellow).Render(msg)
	default:
		return color.New(color.FgGreen).Render(msg)
	}
}
