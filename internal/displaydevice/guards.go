package displaydevice

import "log"

// guard is a value that owns an undo operation and runs it on release
// unless dismissed. It is the scoped-unwind primitive every Guard below is
// built from: restore is infallible by contract (failures are logged, never
// propagated), and dismiss permanently disarms it.
type guard struct {
	name      string
	dismissed bool
	restore   func() bool
}

func newGuard(name string, restore func() bool) *guard {
	return &guard{name: name, restore: restore}
}

// dismiss disarms the guard; release becomes a no-op.
func (g *guard) dismiss() {
	if g == nil {
		return
	}
	g.dismissed = true
}

// release runs the restore operation exactly once unless dismissed. Safe to
// call multiple times.
func (g *guard) release() {
	if g == nil || g.dismissed || g.restore == nil {
		return
	}
	g.dismissed = true
	if !g.restore() {
		log.Printf("WARN: displaydevice: guard %s failed to restore previous state", g.name)
	}
}

// guardStack holds guards in acquisition order. dismissAll commits them
// (FIFO, oldest first); unwind aborts them (LIFO, newest first).
type guardStack struct {
	guards []*guard
}

func (s *guardStack) push(g *guard) {
	s.guards = append(s.guards, g)
}

// popDismiss disarms and removes the most recently pushed guard without
// running its restore. Used once a slice's revert has succeeded for good:
// the slice stays reverted even if a later slice in the same transaction
// fails.
func (s *guardStack) popDismiss() {
	n := len(s.guards)
	if n == 0 {
		return
	}
	s.guards[n-1].dismiss()
	s.guards = s.guards[:n-1]
}

// dismissAll commits every remaining guard in FIFO order, matching the
// order they were taken.
func (s *guardStack) dismissAll() {
	for _, g := range s.guards {
		g.dismiss()
	}
	s.guards = nil
}

// unwind releases every remaining guard in LIFO order — the exact reverse
// of the order partial progress was made — so any failure mid-transaction
// leaves the OS state bit-for-bit as found.
func (s *guardStack) unwind() {
	for i := len(s.guards) - 1; i >= 0; i-- {
		s.guards[i].release()
	}
	s.guards = nil
}

// newTopologyGuard wraps an already-known topology snapshot (the caller has
// typically just queried it) and restores it via SetTopology unless
// dismissed.
func newTopologyGuard(api Api, snapshot ActiveTopology) *guard {
	return newGuard("topology", func() bool {
		return api.SetTopology(snapshot)
	})
}

// newHdrStateGuard snapshots the current HDR states across the flattened
// topology and restores them via SetHdrStates unless dismissed. Returns the
// guard and the snapshot, since callers need the same snapshot to compute
// the slice they are about to write.
func newHdrStateGuard(api Api, topology ActiveTopology) (*guard, HdrStateMap) {
	snapshot := api.GetCurrentHdrStates(Flatten(topology))
	return newGuard("hdr_state", func() bool {
		return api.SetHdrStates(snapshot)
	}), snapshot
}

// newDisplayModeGuard snapshots the current display modes across the
// flattened topology and restores them via SetDisplayModes unless dismissed.
func newDisplayModeGuard(api Api, topology ActiveTopology) (*guard, DeviceDisplayModeMap) {
	snapshot := api.GetCurrentDisplayModes(Flatten(topology))
	return newGuard("display_mode", func() bool {
		return api.SetDisplayModes(snapshot)
	}), snapshot
}

// newPrimaryDeviceGuard snapshots the device-id currently marked primary
// within the flattened topology (stopping at the first match) and restores
// it via SetAsPrimary unless dismissed.
func newPrimaryDeviceGuard(api Api, topology ActiveTopology) (*guard, DeviceID) {
	var snapshot DeviceID
	for _, id := range Flatten(topology) {
		if api.IsPrimary(id) {
			snapshot = id
			break
		}
	}
	return newGuard("primary_device", func() bool {
		if snapshot == "" {
			return true
		}
		return api.SetAsPrimary(snapshot)
	}), snapshot
}

// newAudioContextGuard snapshots whether audio is already captured. If the
// primary device is about to change and audio is not already captured, it
// captures now so the system audio stream is not reassigned mid-transaction.
// On unwind, it releases the context only if this guard was the one that
// captured it.
func newAudioContextGuard(audio AudioContext, primaryChanging bool) *guard {
	if audio == nil {
		return newGuard("audio_context", func() bool { return true })
	}
	alreadyCaptured := audio.IsCaptured()
	capturedHere := false
	if primaryChanging && !alreadyCaptured {
		capturedHere = audio.Capture()
	}
	return newGuard("audio_context", func() bool {
		if capturedHere {
			audio.Release()
		}
		return true
	})
}
