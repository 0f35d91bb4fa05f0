package displaydevice

// Api is the capability set the settings manager needs from the OS display
// subsystem. The concrete adapter (the real driver layer) lives outside this
// package; this interface is the whole of the core's contract with it.
type Api interface {
	IsApiAccessAvailable() bool
	GetCurrentTopology() ActiveTopology
	IsTopologyValid(ActiveTopology) bool
	SetTopology(ActiveTopology) bool
	GetCurrentDisplayModes(ids []DeviceID) DeviceDisplayModeMap
	SetDisplayModes(DeviceDisplayModeMap) bool
	GetCurrentHdrStates(ids []DeviceID) HdrStateMap
	SetHdrStates(HdrStateMap) bool
	IsPrimary(DeviceID) bool
	SetAsPrimary(DeviceID) bool
	EnumAvailableDevices() []EnumeratedDevice
}

// AudioContext abstracts the audio-capture lifecycle that must be pinned
// across a primary-device swap and released only once the primary
// audio-routing display is restored.
type AudioContext interface {
	Capture() bool
	Release()
	IsCaptured() bool
}

// Persistence is the raw key/value blob store the core persists its state
// through. It has no knowledge of the core's types.
type Persistence interface {
	Load() ([]byte, bool, error)
	Store(blob []byte) bool
	Clear() bool
}
