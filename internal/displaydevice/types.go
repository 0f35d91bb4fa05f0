// Package displaydevice implements the transactional core that applies and
// reverts a host's display configuration on behalf of a session-management
// client: the settings manager, its scoped-undo guards, and the durable
// state the revert path depends on.
package displaydevice

import "sort"

// Point is a 2D integer coordinate, typically a display's desktop origin.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Resolution is a display mode's pixel dimensions.
type Resolution struct {
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

// Rational is an unsigned fraction, used for refresh rates.
type Rational struct {
	Numerator   uint `json:"numerator"`
	Denominator uint `json:"denominator"`
}

// Valid reports whether the rational has a non-zero denominator.
func (r Rational) Valid() bool {
	return r.Denominator != 0
}

// HdrState is the HDR toggle for a device that supports it.
type HdrState int

const (
	HdrStateDisabled HdrState = iota
	HdrStateEnabled
)

func (h HdrState) String() string {
	if h == HdrStateEnabled {
		return "enabled"
	}
	return "disabled"
}

// DeviceID identifies a physical or virtual display output.
type DeviceID string

// DisplayMode is a device's resolution plus refresh rate.
type DisplayMode struct {
	Resolution Resolution `json:"resolution"`
	Refresh    Rational   `json:"refresh"`
}

// ActiveTopology is an ordered list of device groups; each group is one
// logical display surface (a clone-set). No device-id may appear in two
// groups.
type ActiveTopology [][]DeviceID

// Empty reports whether the topology has no groups.
func (t ActiveTopology) Empty() bool {
	return len(t) == 0
}

// Flatten returns every device-id appearing in any group, deduplicated, in
// first-seen order.
func Flatten(topology ActiveTopology) []DeviceID {
	seen := make(map[DeviceID]struct{})
	out := make([]DeviceID, 0, len(topology))
	for _, group := range topology {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Contains reports whether the topology already contains the device-id.
func Contains(topology ActiveTopology, id DeviceID) bool {
	for _, group := range topology {
		for _, existing := range group {
			if existing == id {
				return true
			}
		}
	}
	return false
}

// EqualTopology compares two topologies for structural equality: same
// groups, in the same order, each with the same members in the same order.
func EqualTopology(a, b ActiveTopology) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// HdrStateMap maps device-id to an optional HDR state. Absence of a key (or
// a present-but-unset entry) means the device does not support HDR.
type HdrStateMap map[DeviceID]*HdrState

// EqualHdrStateMap compares two maps field-by-field; absent vs present is
// unequal even when the present value would otherwise match.
func EqualHdrStateMap(a, b HdrStateMap) bool {
	if len(a) != len(b) {
		return false
	}
	for id, av := range a {
		bv, ok := b[id]
		if !ok {
			return false
		}
		if (av == nil) != (bv == nil) {
			return false
		}
		if av != nil && *av != *bv {
			return false
		}
	}
	return true
}

// DeviceDisplayModeMap maps device-id to its display mode.
type DeviceDisplayModeMap map[DeviceID]DisplayMode

// EqualDisplayModeMap compares two maps field-by-field.
func EqualDisplayModeMap(a, b DeviceDisplayModeMap) bool {
	if len(a) != len(b) {
		return false
	}
	for id, av := range a {
		bv, ok := b[id]
		if !ok || av != bv {
			return false
		}
	}
	return true
}

// DevicePreparation is the requested relationship the target device must
// have to the final topology.
type DevicePreparation int

const (
	// VerifyOnly requires the device to already be active; it rejects the
	// request if the device is absent from the current topology.
	VerifyOnly DevicePreparation = iota
	// EnsureActive extends the current topology to include the device if
	// it is not already active.
	EnsureActive
	// EnsurePrimary additionally requires the device to become the sole
	// primary device.
	EnsurePrimary
	// EnsureOnlyDisplay collapses the topology to the single target device.
	EnsureOnlyDisplay
)

func (p DevicePreparation) String() string {
	switch p {
	case VerifyOnly:
		return "verify_only"
	case EnsureActive:
		return "ensure_active"
	case EnsurePrimary:
		return "ensure_primary"
	case EnsureOnlyDisplay:
		return "ensure_only_display"
	default:
		return "unknown"
	}
}

// SingleDisplayConfiguration is a client's request to prepare one display
// for a session.
type SingleDisplayConfiguration struct {
	DeviceID    DeviceID
	Preparation DevicePreparation
	Resolution  *Resolution
	Refresh     *Rational
	HdrState    *HdrState
}

// Equal compares two requests structurally; absent vs present optional
// fields are unequal.
func (c SingleDisplayConfiguration) Equal(o SingleDisplayConfiguration) bool {
	if c.DeviceID != o.DeviceID || c.Preparation != o.Preparation {
		return false
	}
	if !equalResPtr(c.Resolution, o.Resolution) {
		return false
	}
	if !equalRationalPtr(c.Refresh, o.Refresh) {
		return false
	}
	if (c.HdrState == nil) != (o.HdrState == nil) {
		return false
	}
	if c.HdrState != nil && *c.HdrState != *o.HdrState {
		return false
	}
	return true
}

func equalResPtr(a, b *Resolution) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func equalRationalPtr(a, b *Rational) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// ModifiedState is the slice of live state the manager has changed in the
// current transaction and must still undo on revert. Each original_* field
// is empty iff that slice was not modified. Topology is never empty while a
// ModifiedState exists.
type ModifiedState struct {
	Topology              ActiveTopology       `json:"topology"`
	OriginalModes         DeviceDisplayModeMap `json:"original_modes,omitempty"`
	OriginalHdrStates     HdrStateMap          `json:"original_hdr_states,omitempty"`
	OriginalPrimaryDevice DeviceID             `json:"original_primary_device,omitempty"`
}

// InitialState is the user's pre-session state, captured once at the first
// successful apply and held immutable until revert completes.
type InitialState struct {
	Topology      ActiveTopology `json:"topology"`
	PrimaryDevice DeviceID       `json:"primary_device"`
}

// SingleDisplayConfigState is the unit persisted across process lifetime.
// Its existence signals that a revert is owed to the user.
type SingleDisplayConfigState struct {
	Initial  InitialState  `json:"initial"`
	Modified ModifiedState `json:"modified"`
}

// Clone returns a deep copy so callers can mutate a working copy without
// aliasing the cached or persisted value.
func (s SingleDisplayConfigState) Clone() SingleDisplayConfigState {
	out := s
	out.Initial.Topology = cloneTopology(s.Initial.Topology)
	out.Modified.Topology = cloneTopology(s.Modified.Topology)
	if s.Modified.OriginalModes != nil {
		out.Modified.OriginalModes = make(DeviceDisplayModeMap, len(s.Modified.OriginalModes))
		for k, v := range s.Modified.OriginalModes {
			out.Modified.OriginalModes[k] = v
		}
	}
	if s.Modified.OriginalHdrStates != nil {
		out.Modified.OriginalHdrStates = make(HdrStateMap, len(s.Modified.OriginalHdrStates))
		for k, v := range s.Modified.OriginalHdrStates {
			if v == nil {
				out.Modified.OriginalHdrStates[k] = nil
				continue
			}
			vv := *v
			out.Modified.OriginalHdrStates[k] = &vv
		}
	}
	return out
}

func cloneTopology(t ActiveTopology) ActiveTopology {
	if t == nil {
		return nil
	}
	out := make(ActiveTopology, len(t))
	for i, group := range t {
		out[i] = append([]DeviceID(nil), group...)
	}
	return out
}

// EnumeratedDeviceInfo carries human-facing descriptive fields for a device.
type EnumeratedDeviceInfo struct {
	FriendlyName string `json:"friendly_name"`
	DisplayName  string `json:"display_name"`
	HdrSupported bool   `json:"hdr_supported"`
}

// EnumeratedDevice is one entry returned by enumAvailableDevices.
type EnumeratedDevice struct {
	ID   DeviceID             `json:"id"`
	Info EnumeratedDeviceInfo `json:"info"`
}

// SortDeviceIDs returns a new, ascending-sorted copy for deterministic
// iteration over otherwise-unordered device-id sets.
func SortDeviceIDs(ids []DeviceID) []DeviceID {
	out := append([]DeviceID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
