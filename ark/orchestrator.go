// Package ark builds point-in-time snapshots of workshop subscriptions and
// reconciles a loaded snapshot against live state through a plan/confirm/
// apply protocol.
package ark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mod-ark/contract"
	"mod-ark/domain"
	"mod-ark/errors"

	"github.com/samber/lo"
)

// Notify receives one human-readable progress line. The host wires it to the
// terminal's show channel; failures surface here too, on the same channel as
// successes.
type Notify func(text string)

// Orchestrator drives backup and restore. All blocking waits suspend via the
// context; a canceled context ends the operation at the next wait.
type Orchestrator struct {
	log        *slog.Logger
	workshop   contract.IWorkshop
	repo       contract.IStateRepository
	timing     Timing
	backupRoot string
	stagingDir string
	notify     Notify
	onRestart  func()
}

func NewOrchestrator(
	log *slog.Logger,
	workshop contract.IWorkshop,
	repo contract.IStateRepository,
	timing Timing,
	backupRoot, stagingDir string,
	notify Notify,
	onRestart func(),
) *Orchestrator {
	return &Orchestrator{
		log:        log,
		workshop:   workshop,
		repo:       repo,
		timing:     timing,
		backupRoot: backupRoot,
		stagingDir: stagingDir,
		notify:     notify,
		onRestart:  onRestart,
	}
}

// Backup assembles and persists a snapshot of the current subscriptions,
// order, and enablement. Nothing is written when the workshop is not ready.
func (o *Orchestrator) Backup(name string) (string, error) {
	if !o.workshop.Ready() {
		o.publish("Workshop is not ready, cannot backup subscriptions.")
		return "", errors.ErrServiceUnavailable
	}

	dir := filepath.Join(o.backupRoot, fmt.Sprintf("backup_%s_%s",
		time.Now().UTC().Format("20060102_150405"), SanitizeName(name)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	o.publish(fmt.Sprintf("Creating backup at: %s", dir))

	subscribed, err := o.subscribedMods()
	if err != nil {
		return "", err
	}

	states, err := o.repo.CurrentStates()
	if err != nil {
		return "", fmt.Errorf("read current states: %w", err)
	}

	snapshot := domain.BackupSnapshot{
		Version:        domain.SnapshotVersion,
		BackupName:     name,
		CreatedAtUtc:   time.Now().UTC(),
		Collection:     domain.DefaultCollectionInfo(),
		SubscribedMods: subscribed,
		ModOrder: lo.Map(states, func(s domain.ModState, _ int) domain.ModOrderEntry {
			return domain.ModOrderEntry{Name: s.Name, OrderIndex: s.OrderIndex}
		}),
		ModEnabledStates: lo.Map(states, func(s domain.ModState, _ int) domain.ModEnabledEntry {
			return domain.ModEnabledEntry{Name: s.Name, Enabled: s.Enabled}
		}),
	}

	path := filepath.Join(dir, "backup.json")
	bytes, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize snapshot: %w", err)
	}
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	o.publish(fmt.Sprintf("Backup snapshot written to: %s", path))
	o.publish("Backup completed.")
	return path, nil
}

// Restore runs the confirm-gated two-phase protocol: locate, load, validate,
// plan, and (only when confirmed) apply. Per-action failures are recorded in
// the summary and never abort the remaining actions. Known limitation: the
// unsubscribe list is diffed at plan time, so an unsubscribe that fails here
// but succeeds out-of-band later is not reconciled.
func (o *Orchestrator) Restore(ctx context.Context, confirmed bool) (string, error) {
	path, err := o.locateSnapshot(ctx)
	if err != nil {
		return "", err
	}
	o.publish(fmt.Sprintf("Found backup file: %s", path))

	snapshot, err := o.loadSnapshot(path)
	if err != nil {
		return "", err
	}

	subscribed, err := o.workshop.ListSubscribed()
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrServiceUnavailable, err)
	}
	known, err := o.repo.KnownMods()
	if err != nil {
		return "", fmt.Errorf("read known mods: %w", err)
	}

	plan := domain.ComputePlan(subscribed, snapshot, known)

	if !confirmed {
		o.publish(RenderPlan(plan))
		return "Restore needs an explicit --yes to modify subscriptions. Nothing was changed.", nil
	}

	if !o.workshop.Ready() {
		o.publish("Workshop is not ready, cannot restore subscriptions.")
		return "", errors.ErrServiceUnavailable
	}

	results := o.applySubscriptions(ctx, plan, snapshot.SubscribedMods, subscribed)

	if err := o.repo.Apply(plan.CombinedStates); err != nil {
		return "", fmt.Errorf("apply mod states: %w", err)
	}
	o.publish(fmt.Sprintf("Applied order and enablement for %d mods.", len(plan.CombinedStates)))

	o.scheduleRestart(ctx)
	return fmt.Sprintf("Restore completed: %d subscription actions processed.", len(results)), nil
}

// locateSnapshot polls the staging directory until a snapshot file appears
// or the bounded wait elapses.
func (o *Orchestrator) locateSnapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(o.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	o.publish(fmt.Sprintf("Drop a backup .json into %s to restore from it.", o.stagingDir))

	for i := 0; i < o.timing.LocatePolls; i++ {
		matches, err := filepath.Glob(filepath.Join(o.stagingDir, "*.json"))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
		if err := sleep(ctx, o.timing.LocateInterval); err != nil {
			return "", err
		}
	}

	o.publish("No backup file appeared, restore aborted.")
	return "", errors.ErrRestoreTimeout
}

func (o *Orchestrator) loadSnapshot(path string) (domain.BackupSnapshot, error) {
	var snapshot domain.BackupSnapshot

	bytes, err := os.ReadFile(path)
	if err != nil {
		return snapshot, fmt.Errorf("%w: %v", errors.ErrInvalidSnapshot, err)
	}
	if err := json.Unmarshal(bytes, &snapshot); err != nil {
		o.publish("The backup file could not be read.")
		return snapshot, fmt.Errorf("%w: %v", errors.ErrInvalidSnapshot, err)
	}
	if err := snapshot.Validate(); err != nil {
		o.publish("The backup file misses required fields.")
		return snapshot, fmt.Errorf("%w: %v", errors.ErrMissingFields, err)
	}
	return snapshot, nil
}

// applySubscriptions runs every unsubscribe then every subscribe action,
// recording each outcome individually. Desired mods that were already live
// before any mutation are recorded as no-op actions.
func (o *Orchestrator) applySubscriptions(ctx context.Context, plan domain.RestorePlan, desired []domain.SubscribedMod, subscribed []uint64) []string {
	current := lo.SliceToMap(subscribed, func(id uint64) (uint64, struct{}) { return id, struct{}{} })
	var results []string

	for _, id := range plan.ToUnsubscribe {
		err := o.callWithRetry(ctx, fmt.Sprintf("unsubscribe %d", id), func() (contract.WorkshopCall, error) {
			return o.workshop.Unsubscribe(id)
		})
		results = append(results, fmt.Sprintf("Unsubscribe %d: %s", id, verdict(err)))
		if err == nil {
			o.publish(fmt.Sprintf("Unsubscribed from %d.", id))
		}
	}

	for _, mod := range plan.ToSubscribe {
		err := o.callWithRetry(ctx, fmt.Sprintf("subscribe %d", mod.ExternalID), func() (contract.WorkshopCall, error) {
			return o.workshop.Subscribe(mod.ExternalID)
		})
		results = append(results, fmt.Sprintf("%s (%d): %s", mod.DisplayName, mod.ExternalID, verdict(err)))
		if err == nil {
			o.publish(fmt.Sprintf("Subscribed to %s (%d).", mod.DisplayName, mod.ExternalID))
		}
	}

	for _, mod := range desired {
		if _, ok := current[mod.ExternalID]; ok && mod.ExternalID != 0 {
			results = append(results, fmt.Sprintf("%s (%d): already subscribed", mod.DisplayName, mod.ExternalID))
		}
	}

	return results
}

// callWithRetry starts the workshop call and polls its completion flag, up
// to MaxAttempts attempts of at most AttemptWait each, with RetryDelay
// between attempts. An attempt that never completes inside its window counts
// as failed.
func (o *Orchestrator) callWithRetry(ctx context.Context, label string, start func() (contract.WorkshopCall, error)) error {
	for attempt := 1; attempt <= o.timing.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, o.timing.RetryDelay); err != nil {
				return err
			}
		}

		if !o.workshop.Ready() {
			o.publish(fmt.Sprintf("Workshop not ready, cannot %s. Attempt %d.", label, attempt))
			if err := sleep(ctx, o.timing.NotReadyDelay); err != nil {
				return err
			}
			continue
		}

		call, err := start()
		if err != nil {
			o.log.Debug("Workshop call failed to start", "action", label, "attempt", attempt, "error", err)
			continue
		}

		if completed := o.awaitCall(ctx, call); completed {
			if callErr := call.Err(); callErr != nil {
				o.publish(fmt.Sprintf("Attempt %d to %s failed: %v", attempt, label, callErr))
				continue
			}
			return nil
		}
		o.publish(fmt.Sprintf("Attempt %d to %s timed out.", attempt, label))
	}

	o.publish(fmt.Sprintf("Giving up on %s after %d attempts.", label, o.timing.MaxAttempts))
	return fmt.Errorf("%w: %s", errors.ErrExternalCallFailed, label)
}

func (o *Orchestrator) awaitCall(ctx context.Context, call contract.WorkshopCall) bool {
	var waited time.Duration
	for waited < o.timing.AttemptWait {
		if call.Done() {
			return true
		}
		if err := sleep(ctx, o.timing.PollInterval); err != nil {
			return false
		}
		waited += o.timing.PollInterval
	}
	return call.Done()
}

// scheduleRestart fires the process-level restart notification after a fixed
// countdown so the reconciled subscription set takes effect.
func (o *Orchestrator) scheduleRestart(ctx context.Context) {
	o.publish(fmt.Sprintf("The process will restart in %s to load the restored set.", o.timing.RestartDelay))
	go func() {
		if err := sleep(ctx, o.timing.RestartDelay); err != nil {
			return
		}
		o.publish("Restarting now.")
		if o.onRestart != nil {
			o.onRestart()
		}
	}()
}

func (o *Orchestrator) subscribedMods() ([]domain.SubscribedMod, error) {
	ids, err := o.workshop.ListSubscribed()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrServiceUnavailable, err)
	}

	known, err := o.repo.KnownMods()
	if err != nil {
		return nil, fmt.Errorf("read known mods: %w", err)
	}
	byExternal := make(map[uint64]domain.ModInfo, len(known))
	for _, info := range known {
		if info.ExternalID != 0 {
			if _, ok := byExternal[info.ExternalID]; !ok {
				byExternal[info.ExternalID] = info
			}
		}
	}

	mods := lo.Map(ids, func(id uint64, _ int) domain.SubscribedMod {
		if info, ok := byExternal[id]; ok {
			return domain.SubscribedMod{ExternalID: id, Name: info.Name, DisplayName: info.DisplayName}
		}
		label := domain.FallbackModLabel(id)
		return domain.SubscribedMod{ExternalID: id, Name: label, DisplayName: label}
	})
	sortSubscribed(mods)
	return mods, nil
}

func (o *Orchestrator) publish(text string) {
	o.log.Info(text)
	if o.notify != nil {
		o.notify(text)
	}
}

func verdict(err error) string {
	if err != nil {
		return "FAILED"
	}
	return "OK"
}

// SanitizeName makes a backup name safe as a path segment.
func SanitizeName(name string) string {
	replaced := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(replaced)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
