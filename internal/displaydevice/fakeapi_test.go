package displaydevice

import (
	"errors"
	"fmt"
	"strings"
)

// fakeApi is a hand-rolled, order-recording stand-in for the live OS driver.
// Every method appends a short label to calls so tests can assert on the
// exact OS-call trace a transaction produced, not just its end state.
type fakeApi struct {
	available bool
	topology  ActiveTopology
	devices   []EnumeratedDevice
	modes     DeviceDisplayModeMap
	hdr       HdrStateMap
	primary   DeviceID

	topologyValid func(ActiveTopology) bool
	failTopology  bool
	failModes     bool
	failHdr       bool
	failPrimary   bool

	calls []string
}

func newFakeApi() *fakeApi {
	return &fakeApi{
		available: true,
		modes:     DeviceDisplayModeMap{},
		hdr:       HdrStateMap{},
	}
}

func topoLabel(t ActiveTopology) string {
	groups := make([]string, len(t))
	for i, g := range t {
		ids := make([]string, len(g))
		for j, id := range g {
			ids[j] = string(id)
		}
		groups[i] = "[" + strings.Join(ids, ",") + "]"
	}
	return strings.Join(groups, ",")
}

func (f *fakeApi) record(s string) {
	f.calls = append(f.calls, s)
}

func (f *fakeApi) IsApiAccessAvailable() bool {
	f.record("isApiAccessAvailable")
	return f.available
}

func (f *fakeApi) GetCurrentTopology() ActiveTopology {
	f.record("getCurrentTopology")
	return f.topology
}

func (f *fakeApi) IsTopologyValid(t ActiveTopology) bool {
	f.record(fmt.Sprintf("isTopologyValid(%s)", topoLabel(t)))
	if f.topologyValid != nil {
		return f.topologyValid(t)
	}
	return true
}

func (f *fakeApi) SetTopology(t ActiveTopology) bool {
	f.record(fmt.Sprintf("setTopology(%s)", topoLabel(t)))
	if f.failTopology {
		return false
	}
	f.topology = t
	return true
}

func (f *fakeApi) GetCurrentDisplayModes(ids []DeviceID) DeviceDisplayModeMap {
	f.record("getCurrentDisplayModes")
	out := make(DeviceDisplayModeMap, len(ids))
	for _, id := range ids {
		if m, ok := f.modes[id]; ok {
			out[id] = m
		}
	}
	return out
}

func (f *fakeApi) SetDisplayModes(m DeviceDisplayModeMap) bool {
	f.record("setDisplayModes")
	if f.failModes {
		return false
	}
	for k, v := range m {
		f.modes[k] = v
	}
	return true
}

func (f *fakeApi) GetCurrentHdrStates(ids []DeviceID) HdrStateMap {
	f.record("getCurrentHdrStates")
	out := make(HdrStateMap, len(ids))
	for _, id := range ids {
		if v, ok := f.hdr[id]; ok {
			out[id] = v
		}
	}
	return out
}

func (f *fakeApi) SetHdrStates(m HdrStateMap) bool {
	f.record("setHdrStates")
	if f.failHdr {
		return false
	}
	for k, v := range m {
		f.hdr[k] = v
	}
	return true
}

func (f *fakeApi) IsPrimary(id DeviceID) bool {
	f.record(fmt.Sprintf("isPrimary(%s)", id))
	return f.primary == id
}

func (f *fakeApi) SetAsPrimary(id DeviceID) bool {
	f.record(fmt.Sprintf("setAsPrimary(%s)", id))
	if f.failPrimary {
		return false
	}
	f.primary = id
	return true
}

func (f *fakeApi) EnumAvailableDevices() []EnumeratedDevice {
	f.record("enumAvailableDevices")
	return f.devices
}

// fakeAudio is a recording stand-in for the AudioContext collaborator.
type fakeAudio struct {
	captured    bool
	failCapture bool
	calls       []string
}

func (a *fakeAudio) Capture() bool {
	a.calls = append(a.calls, "capture")
	if a.failCapture {
		return false
	}
	a.captured = true
	return true
}

func (a *fakeAudio) Release() {
	a.calls = append(a.calls, "release")
	a.captured = false
}

func (a *fakeAudio) IsCaptured() bool {
	a.calls = append(a.calls, "isCaptured")
	return a.captured
}

// fakeStore is a recording stand-in for the raw Persistence blob backend.
type fakeStore struct {
	blob []byte
	has  bool

	failLoad  bool
	failStore bool
	failClear bool

	storeCalls int
	clearCalls int
}

func (s *fakeStore) Load() ([]byte, bool, error) {
	if s.failLoad {
		return nil, false, errors.New("fake: load failed")
	}
	if !s.has {
		return nil, false, nil
	}
	return s.blob, true, nil
}

func (s *fakeStore) Store(blob []byte) bool {
	s.storeCalls++
	if s.failStore {
		return false
	}
	s.blob = blob
	s.has = true
	return true
}

func (s *fakeStore) Clear() bool {
	s.clearCalls++
	if s.failClear {
		return false
	}
	s.blob = nil
	s.has = false
	return true
}

// seedStore persists state directly into store, bypassing any SettingsManager,
// so a test can start from "persistence already holds this".
func seedStore(store *fakeStore, state SingleDisplayConfigState) {
	blob, err := serializeState(state)
	if err != nil {
		panic(err)
	}
	store.blob = blob
	store.has = true
}
