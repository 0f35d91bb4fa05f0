package displaydevice

import (
	"encoding/json"
	"fmt"
)

// schemaVersion is encoded as a top-level integer in the persisted blob;
// readers reject payloads carrying any other value.
const schemaVersion = 1

// wireState is the self-describing, JSON-equivalent object graph persisted
// to the blob store. Optional sub-objects are omitted entirely when empty
// so old payloads stay forward-compatible.
type wireState struct {
	Version  int          `json:"version"`
	Initial  wireInitial  `json:"initial"`
	Modified wireModified `json:"modified"`
}

type wireInitial struct {
	Topology      ActiveTopology `json:"topology"`
	PrimaryDevice DeviceID       `json:"primary_device"`
}

type wireModified struct {
	Topology              ActiveTopology       `json:"topology"`
	OriginalModes         DeviceDisplayModeMap `json:"original_modes,omitempty"`
	OriginalHdrStates     HdrStateMap          `json:"original_hdr_states,omitempty"`
	OriginalPrimaryDevice DeviceID             `json:"original_primary_device,omitempty"`
}

func toWire(s SingleDisplayConfigState) wireState {
	return wireState{
		Version: schemaVersion,
		Initial: wireInitial{
			Topology:      s.Initial.Topology,
			PrimaryDevice: s.Initial.PrimaryDevice,
		},
		Modified: wireModified{
			Topology:              s.Modified.Topology,
			OriginalModes:         s.Modified.OriginalModes,
			OriginalHdrStates:     s.Modified.OriginalHdrStates,
			OriginalPrimaryDevice: s.Modified.OriginalPrimaryDevice,
		},
	}
}

func fromWire(w wireState) (SingleDisplayConfigState, error) {
	if w.Version != schemaVersion {
		return SingleDisplayConfigState{}, fmt.Errorf("%w: unknown schema version %d", ErrCorruptState, w.Version)
	}
	state := SingleDisplayConfigState{
		Initial: InitialState{
			Topology:      w.Initial.Topology,
			PrimaryDevice: w.Initial.PrimaryDevice,
		},
		Modified: ModifiedState{
			Topology:              w.Modified.Topology,
			OriginalModes:         w.Modified.OriginalModes,
			OriginalHdrStates:     w.Modified.OriginalHdrStates,
			OriginalPrimaryDevice: w.Modified.OriginalPrimaryDevice,
		},
	}
	if err := validateState(state); err != nil {
		return SingleDisplayConfigState{}, err
	}
	return state, nil
}

// validateState enforces the §3 invariants on a state read back from
// persistence: modified.topology is never empty while a state exists, and
// no device-id appears in two groups of either topology. Writes through
// PersistState are not validated.
func validateState(s SingleDisplayConfigState) error {
	if s.Modified.Topology.Empty() {
		return fmt.Errorf("%w: modified topology is empty", ErrCorruptState)
	}
	if !topologyWellFormed(s.Initial.Topology) {
		return fmt.Errorf("%w: initial topology has a device in multiple groups", ErrCorruptState)
	}
	if !topologyWellFormed(s.Modified.Topology) {
		return fmt.Errorf("%w: modified topology has a device in multiple groups", ErrCorruptState)
	}
	return nil
}

func topologyWellFormed(t ActiveTopology) bool {
	seen := make(map[DeviceID]struct{})
	for _, group := range t {
		if len(group) == 0 {
			return false
		}
		for _, id := range group {
			if _, ok := seen[id]; ok {
				return false
			}
			seen[id] = struct{}{}
		}
	}
	return true
}

func serializeState(s SingleDisplayConfigState) ([]byte, error) {
	return json.Marshal(toWire(s))
}

func deserializeState(blob []byte) (SingleDisplayConfigState, error) {
	var w wireState
	if err := json.Unmarshal(blob, &w); err != nil {
		return SingleDisplayConfigState{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return fromWire(w)
}

// PersistentState (de)serializes the core's SingleDisplayConfigState to and
// from a raw Persistence blob store and caches the last successfully-read
// value so repeat reads within one process lifetime never re-parse.
type PersistentState struct {
	store    Persistence
	cached   *SingleDisplayConfigState
	didCache bool
}

// NewPersistentState wraps a raw Persistence backend.
func NewPersistentState(store Persistence) *PersistentState {
	return &PersistentState{store: store}
}

// GetState returns the cached value if present; otherwise it loads and
// deserializes once and caches the result (including "no state").
func (p *PersistentState) GetState() (*SingleDisplayConfigState, error) {
	if p.didCache {
		return p.cached, nil
	}
	blob, ok, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if !ok {
		p.cached = nil
		p.didCache = true
		return nil, nil
	}
	state, err := deserializeState(blob)
	if err != nil {
		// A malformed payload is treated as "no state" for reads, but the
		// core surfaces the error to the caller rather than silently
		// overwriting it — so the cache is left unset.
		return nil, err
	}
	p.cached = &state
	p.didCache = true
	return p.cached, nil
}

// PersistState writes the given state (or clears persistence if nil). The
// in-memory cache updates only on success.
func (p *PersistentState) PersistState(state *SingleDisplayConfigState) error {
	if state == nil {
		if !p.store.Clear() {
			return fmt.Errorf("%w: clear failed", ErrPersistenceFailure)
		}
		p.cached = nil
		p.didCache = true
		return nil
	}
	blob, err := serializeState(*state)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if !p.store.Store(blob) {
		return fmt.Errorf("%w: store failed", ErrPersistenceFailure)
	}
	cloned := state.Clone()
	p.cached = &cloned
	p.didCache = true
	return nil
}
