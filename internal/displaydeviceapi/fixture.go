package displaydeviceapi

import (
	"sync"

	"displayd/internal/displaydevice"
)

// FixtureApi implements displaydevice.Api entirely in memory, seeded from a
// Catalog. It accepts every topology that only references catalog devices
// and never fails a setter, so it exercises the full settings-manager
// transaction shape without a real display driver behind it.
type FixtureApi struct {
	mu sync.Mutex

	available bool
	devices   []displaydevice.EnumeratedDevice
	topology  displaydevice.ActiveTopology
	modes     displaydevice.DeviceDisplayModeMap
	hdr       displaydevice.HdrStateMap
	primary   displaydevice.DeviceID
}

// NewFixtureApi starts with every catalog device active in its own group
// and the first device as primary.
func NewFixtureApi(cat Catalog) *FixtureApi {
	devices := cat.toEnumerated()
	topology := make(displaydevice.ActiveTopology, 0, len(devices))
	modes := make(displaydevice.DeviceDisplayModeMap, len(devices))
	hdr := make(displaydevice.HdrStateMap, len(devices))
	var primary displaydevice.DeviceID

	for i, d := range devices {
		topology = append(topology, []displaydevice.DeviceID{d.ID})
		modes[d.ID] = displaydevice.DisplayMode{
			Resolution: displaydevice.Resolution{Width: 1920, Height: 1080},
			Refresh:    displaydevice.Rational{Numerator: 60, Denominator: 1},
		}
		if d.Info.HdrSupported {
			disabled := displaydevice.HdrStateDisabled
			hdr[d.ID] = &disabled
		}
		if i == 0 {
			primary = d.ID
		}
	}

	return &FixtureApi{
		available: true,
		devices:   devices,
		topology:  topology,
		modes:     modes,
		hdr:       hdr,
		primary:   primary,
	}
}

func (f *FixtureApi) IsApiAccessAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// SetApiAccessAvailable lets an operator or a test simulate the display
// subsystem becoming (un)available.
func (f *FixtureApi) SetApiAccessAvailable(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = ok
}

func (f *FixtureApi) GetCurrentTopology() displaydevice.ActiveTopology {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topology
}

func (f *FixtureApi) IsTopologyValid(t displaydevice.ActiveTopology) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range displaydevice.Flatten(t) {
		if !deviceKnown(f.devices, id) {
			return false
		}
	}
	return true
}

func (f *FixtureApi) SetTopology(t displaydevice.ActiveTopology) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topology = t
	return true
}

func (f *FixtureApi) GetCurrentDisplayModes(ids []displaydevice.DeviceID) displaydevice.DeviceDisplayModeMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(displaydevice.DeviceDisplayModeMap, len(ids))
	for _, id := range ids {
		if m, ok := f.modes[id]; ok {
			out[id] = m
		}
	}
	return out
}

func (f *FixtureApi) SetDisplayModes(m displaydevice.DeviceDisplayModeMap) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range m {
		f.modes[k] = v
	}
	return true
}

func (f *FixtureApi) GetCurrentHdrStates(ids []displaydevice.DeviceID) displaydevice.HdrStateMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(displaydevice.HdrStateMap, len(ids))
	for _, id := range ids {
		if v, ok := f.hdr[id]; ok {
			out[id] = v
		}
	}
	return out
}

func (f *FixtureApi) SetHdrStates(m displaydevice.HdrStateMap) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range m {
		f.hdr[k] = v
	}
	return true
}

func (f *FixtureApi) IsPrimary(id displaydevice.DeviceID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.primary == id
}

func (f *FixtureApi) SetAsPrimary(id displaydevice.DeviceID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primary = id
	return true
}

func (f *FixtureApi) EnumAvailableDevices() []displaydevice.EnumeratedDevice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices
}

func deviceKnown(devices []displaydevice.EnumeratedDevice, id displaydevice.DeviceID) bool {
	for _, d := range devices {
		if d.ID == id {
			return true
		}
	}
	return false
}
