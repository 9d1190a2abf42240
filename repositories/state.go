package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"mod-ark/domain"

	"github.com/dgraph-io/badger/v4"
)

// Key layout:
//
//	mod:<name>        locally-known mod metadata (JSON)
//	ModOrder_<name>   load-order index (decimal)
//	ModActive_<name>  enablement flag ("1"/"0"), the key the game itself uses
const (
	modPrefix = "mod:"
	orderKey  = "ModOrder_"
	activeKey = "ModActive_"
	flagOn    = "1"
	flagOff   = "0"
)

type modRecord struct {
	ExternalID  uint64 `json:"externalId"`
	DisplayName string `json:"displayName"`
}

// StateRepository reads and writes mod order and enablement through the
// process-wide persistence store.
type StateRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStateRepository(db *badger.DB, log *slog.Logger) StateRepository {
	return StateRepository{db: db, log: log}
}

// PutMod records or updates one locally-known mod's metadata.
func (r StateRepository) PutMod(info domain.ModInfo) error {
	if info.Name == "" {
		return fmt.Errorf("mod name is required")
	}
	bytes, err := json.Marshal(modRecord{ExternalID: info.ExternalID, DisplayName: info.DisplayName})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(modPrefix+info.Name), bytes)
	})
}

// KnownMods returns every locally-known mod, sorted by name (the key order of
// the prefix scan).
func (r StateRepository) KnownMods() ([]domain.ModInfo, error) {
	var mods []domain.ModInfo
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(modPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				var record modRecord
				if err := json.Unmarshal(value, &record); err != nil {
					return fmt.Errorf("mod record %s: %w", name, err)
				}
				mods = append(mods, domain.ModInfo{
					Name:        name,
					ExternalID:  record.ExternalID,
					DisplayName: record.DisplayName,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mods, nil
}

// CurrentStates joins metadata, order, and flags into the live view of every
// locally-known mod, sorted by order index.
func (r StateRepository) CurrentStates() ([]domain.ModState, error) {
	mods, err := r.KnownMods()
	if err != nil {
		return nil, err
	}

	states := make([]domain.ModState, 0, len(mods))
	for _, info := range mods {
		order, err := r.getOrder(info.Name)
		if err != nil {
			return nil, err
		}
		enabled, err := r.GetFlag(info.Name)
		if err != nil {
			return nil, err
		}
		states = append(states, domain.ModState{
			Name:       info.Name,
			ExternalID: info.ExternalID,
			OrderIndex: order,
			Enabled:    enabled,
		})
	}

	sort.SliceStable(states, func(i, j int) bool { return states[i].OrderIndex < states[j].OrderIndex })
	return states, nil
}

func (r StateRepository) SetOrder(name string, index int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(orderKey+name), []byte(strconv.Itoa(index)))
	})
}

func (r StateRepository) SetFlag(name string, enabled bool) error {
	value := flagOff
	if enabled {
		value = flagOn
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(activeKey+name), []byte(value))
	})
}

// GetFlag returns false for mods with no recorded flag, matching the game's
// default for never-toggled mods.
func (r StateRepository) GetFlag(name string) (bool, error) {
	var enabled bool
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(activeKey + name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			enabled = string(value) == flagOn
			return nil
		})
	})
	return enabled, err
}

// Apply persists a reconciled state set: sequential order indices are
// assigned in ascending OrderIndex order first, then every enablement flag
// is written. Nameless entries are skipped.
func (r StateRepository) Apply(states []domain.ModState) error {
	ordered := append([]domain.ModState(nil), states...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	next := 0
	for _, state := range ordered {
		if state.Name == "" {
			continue
		}
		if err := r.SetOrder(state.Name, next); err != nil {
			return fmt.Errorf("set order %s: %w", state.Name, err)
		}
		next++
	}

	for _, state := range states {
		if state.Name == "" {
			continue
		}
		if err := r.SetFlag(state.Name, state.Enabled); err != nil {
			return fmt.Errorf("set flag %s: %w", state.Name, err)
		}
	}
	return nil
}

func (r StateRepository) getOrder(name string) (int, error) {
	var index int
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(orderKey + name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			parsed, err := strconv.Atoi(string(value))
			if err != nil {
				return fmt.Errorf("order of %s: %w", name, err)
			}
			index = parsed
			return nil
		})
	})
	return index, err
}
