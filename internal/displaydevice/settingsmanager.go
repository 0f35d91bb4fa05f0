package displaydevice

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// SettingsManager is the transactional core: it applies a single display's
// configuration on behalf of a session, remembers enough to undo it, and
// reverts the host back to how it found it — including across a crash
// between revert sub-steps, since progress is persisted as it is made.
type SettingsManager struct {
	api   Api
	audio AudioContext
	state *PersistentState
}

// NewSettingsManager wires the manager to its OS driver, its audio
// coordination point, and its persisted-state store.
func NewSettingsManager(api Api, audio AudioContext, persistence Persistence) *SettingsManager {
	return &SettingsManager{
		api:   api,
		audio: audio,
		state: NewPersistentState(persistence),
	}
}

// ApplySettings prepares the requested device per req.Preparation, capturing
// whatever was live before the change so RevertSettings can undo it later.
// It never leaves the OS or the persisted state partially changed: any
// failure unwinds every guard already taken, in reverse order.
func (m *SettingsManager) ApplySettings(req SingleDisplayConfiguration) (Result, error) {
	cid := uuid.NewString()
	log.Printf("INFO: displaydevice: cid=%s apply device=%s starting", cid, req.DeviceID)

	if !m.api.IsApiAccessAvailable() {
		log.Printf("WARN: displaydevice: cid=%s apply device=%s api unavailable", cid, req.DeviceID)
		return ResultApiTemporarilyUnavailable, ErrApiUnavailable
	}

	prior, err := m.state.GetState()
	if err != nil {
		return ResultPersistenceFailure, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	current := m.api.GetCurrentTopology()
	devices := m.api.EnumAvailableDevices()

	target, err := computeTargetTopology(current, devices, req)
	if err != nil {
		return ResultInvalidRequest, err
	}

	var initial InitialState
	if prior != nil {
		initial = prior.Initial
	} else {
		initial = InitialState{
			Topology:      current,
			PrimaryDevice: currentPrimaryDevice(m.api, current),
		}
	}

	stack := &guardStack{}

	if !m.api.IsTopologyValid(target) {
		return ResultInvalidRequest, fmt.Errorf("%w: target topology rejected by driver", ErrInvalidRequest)
	}
	topologyGuard := newTopologyGuard(m.api, current)
	stack.push(topologyGuard)
	if !m.api.SetTopology(target) {
		stack.unwind()
		return ResultDisplayDeviceFailure, fmt.Errorf("%w: set topology", ErrDisplayDeviceFailure)
	}

	modified := ModifiedState{Topology: target}

	if req.Resolution != nil || req.Refresh != nil {
		modeGuard, snapshot := newDisplayModeGuard(m.api, target)
		stack.push(modeGuard)
		newModes := cloneModeMap(snapshot)
		entry := newModes[req.DeviceID]
		if req.Resolution != nil {
			entry.Resolution = *req.Resolution
		}
		if req.Refresh != nil {
			entry.Refresh = *req.Refresh
		}
		newModes[req.DeviceID] = entry
		if !m.api.SetDisplayModes(newModes) {
			stack.unwind()
			return ResultDisplayDeviceFailure, fmt.Errorf("%w: set display modes", ErrDisplayDeviceFailure)
		}
		modified.OriginalModes = snapshot
	}

	if req.HdrState != nil {
		hdrGuard, snapshot := newHdrStateGuard(m.api, target)
		stack.push(hdrGuard)
		supported, ok := snapshot[req.DeviceID]
		if !ok || supported == nil {
			stack.unwind()
			return ResultInvalidRequest, fmt.Errorf("%w: device does not support hdr", ErrInvalidRequest)
		}
		newHdr := cloneHdrMap(snapshot)
		state := *req.HdrState
		newHdr[req.DeviceID] = &state
		if !m.api.SetHdrStates(newHdr) {
			stack.unwind()
			return ResultDisplayDeviceFailure, fmt.Errorf("%w: set hdr states", ErrDisplayDeviceFailure)
		}
		modified.OriginalHdrStates = snapshot
	}

	primaryChanged := false
	if requiresPrimary(req.Preparation) {
		primaryGuard, snapshot := newPrimaryDeviceGuard(m.api, target)
		stack.push(primaryGuard)
		if snapshot != req.DeviceID {
			if !m.api.SetAsPrimary(req.DeviceID) {
				stack.unwind()
				return ResultDisplayDeviceFailure, fmt.Errorf("%w: set primary device", ErrDisplayDeviceFailure)
			}
			primaryChanged = true
		}
		modified.OriginalPrimaryDevice = snapshot
	}

	audioGuard := newAudioContextGuard(m.audio, primaryChanged)
	stack.push(audioGuard)

	if err := m.state.PersistState(&SingleDisplayConfigState{Initial: initial, Modified: modified}); err != nil {
		stack.unwind()
		return ResultPersistenceFailure, err
	}

	stack.dismissAll()
	log.Printf("INFO: displaydevice: cid=%s apply device=%s committed", cid, req.DeviceID)
	return ResultOK, nil
}

// RevertSettings undoes whatever the most recent successful ApplySettings
// changed, restoring the host to the state it held before the first apply
// in the current session. It is idempotent: calling it again once nothing
// is owed issues no OS calls at all. It is resumable: if the process dies
// partway through, the next call picks up from the persisted progress.
func (m *SettingsManager) RevertSettings() bool {
	state, err := m.state.GetState()
	if err != nil {
		log.Printf("WARN: displaydevice: revert aborted, persisted state unreadable: %v", err)
		return false
	}
	if state == nil {
		return true
	}

	if !m.api.IsApiAccessAvailable() {
		return false
	}

	current := m.api.GetCurrentTopology()
	if !m.api.IsTopologyValid(current) {
		return false
	}

	working := state.Clone()
	stack := &guardStack{}

	if !m.api.IsTopologyValid(working.Modified.Topology) {
		return false
	}
	topologyGuard := newTopologyGuard(m.api, current)
	stack.push(topologyGuard)
	if !m.api.SetTopology(working.Modified.Topology) {
		stack.unwind()
		return false
	}

	subGuards := 0

	if len(working.Modified.OriginalHdrStates) > 0 {
		hdrGuard, _ := newHdrStateGuard(m.api, working.Modified.Topology)
		stack.push(hdrGuard)
		subGuards++
		if !m.api.SetHdrStates(working.Modified.OriginalHdrStates) {
			stack.unwind()
			return false
		}
		working.Modified.OriginalHdrStates = nil
	}

	if len(working.Modified.OriginalModes) > 0 {
		modeGuard, _ := newDisplayModeGuard(m.api, working.Modified.Topology)
		stack.push(modeGuard)
		subGuards++
		if !m.api.SetDisplayModes(working.Modified.OriginalModes) {
			stack.unwind()
			return false
		}
		working.Modified.OriginalModes = nil
	}

	if working.Modified.OriginalPrimaryDevice != "" {
		primaryGuard, _ := newPrimaryDeviceGuard(m.api, working.Modified.Topology)
		stack.push(primaryGuard)
		subGuards++
		if !m.api.SetAsPrimary(working.Modified.OriginalPrimaryDevice) {
			stack.unwind()
			return false
		}
		working.Modified.OriginalPrimaryDevice = ""
	}

	// The HDR/mode/primary guards taken above stay live until the
	// intermediate persist below succeeds: a persistence failure here must
	// unwind all of them (LIFO), not just the topology guard, so the OS call
	// trace stays symmetric with what persistence still claims is owed. The
	// topology guard itself stays on the stack afterward, still guarding the
	// final topology restore below.
	if err := m.state.PersistState(&working); err != nil {
		stack.unwind()
		return false
	}
	for i := 0; i < subGuards; i++ {
		stack.popDismiss()
	}

	if !m.api.IsTopologyValid(working.Initial.Topology) {
		stack.unwind()
		return false
	}
	if !m.api.SetTopology(working.Initial.Topology) {
		stack.unwind()
		return false
	}

	if err := m.state.PersistState(nil); err != nil {
		stack.unwind()
		return false
	}

	if m.audio != nil && m.audio.IsCaptured() {
		m.audio.Release()
	}

	stack.dismissAll()
	return true
}

// HasPendingRevert reports whether persistence currently holds a state a
// caller still owes a revert for.
func (m *SettingsManager) HasPendingRevert() (bool, error) {
	state, err := m.state.GetState()
	if err != nil {
		return false, err
	}
	return state != nil, nil
}

// ResetPersistence discards any persisted state without touching live OS
// configuration. It is an administrative escape hatch for operators who
// know the host has already been restored by other means.
func (m *SettingsManager) ResetPersistence() bool {
	if err := m.state.PersistState(nil); err != nil {
		log.Printf("WARN: displaydevice: reset persistence failed: %v", err)
		return false
	}
	return true
}

func currentPrimaryDevice(api Api, topology ActiveTopology) DeviceID {
	for _, id := range Flatten(topology) {
		if api.IsPrimary(id) {
			return id
		}
	}
	return ""
}

func cloneModeMap(src DeviceDisplayModeMap) DeviceDisplayModeMap {
	out := make(DeviceDisplayModeMap, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneHdrMap(src HdrStateMap) HdrStateMap {
	out := make(HdrStateMap, len(src))
	for k, v := range src {
		if v == nil {
			out[k] = nil
			continue
		}
		vv := *v
		out[k] = &vv
	}
	return out
}
