// Package api defines the wire-level request/response types for displayd's
// HTTP surface and their conversions to and from the displaydevice core
// types.
package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"displayd/internal/displaydevice"
)

// PreparationToken mirrors displaydevice.DevicePreparation as a wire token
// instead of a small integer, so clients never need to know the core's
// enum ordering.
type PreparationToken uint8

const (
	PreparationUnknown PreparationToken = iota
	PreparationVerifyOnly
	PreparationEnsureActive
	PreparationEnsurePrimary
	PreparationEnsureOnlyDisplay
)

var preparationToString = map[PreparationToken]string{
	PreparationVerifyOnly:        "verify_only",
	PreparationEnsureActive:      "ensure_active",
	PreparationEnsurePrimary:     "ensure_primary",
	PreparationEnsureOnlyDisplay: "ensure_only_display",
}

var preparationFromString = map[string]PreparationToken{
	"verify_only":         PreparationVerifyOnly,
	"ensure_active":       PreparationEnsureActive,
	"ensure_primary":      PreparationEnsurePrimary,
	"ensure_only_display": PreparationEnsureOnlyDisplay,
}

// String returns the token representation of the preparation.
func (p PreparationToken) String() string {
	if s, ok := preparationToString[p]; ok {
		return s
	}
	return ""
}

// MarshalJSON converts the preparation enum back to its token.
func (p PreparationToken) MarshalJSON() ([]byte, error) {
	if p == PreparationUnknown {
		return json.Marshal("")
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON parses a preparation token.
func (p *PreparationToken) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	token, err := parsePreparationToken(raw)
	if err != nil {
		return err
	}
	*p = token
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p PreparationToken) MarshalYAML() (interface{}, error) {
	if p == PreparationUnknown {
		return nil, nil
	}
	return p.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PreparationToken) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	token, err := parsePreparationToken(raw)
	if err != nil {
		return err
	}
	*p = token
	return nil
}

func parsePreparationToken(raw string) (PreparationToken, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return PreparationUnknown, nil
	}
	if prep, ok := preparationFromString[token]; ok {
		return prep, nil
	}
	return PreparationUnknown, fmt.Errorf("invalid device preparation '%s'", raw)
}

func (p PreparationToken) toCore() (displaydevice.DevicePreparation, error) {
	switch p {
	case PreparationVerifyOnly:
		return displaydevice.VerifyOnly, nil
	case PreparationEnsureActive:
		return displaydevice.EnsureActive, nil
	case PreparationEnsurePrimary:
		return displaydevice.EnsurePrimary, nil
	case PreparationEnsureOnlyDisplay:
		return displaydevice.EnsureOnlyDisplay, nil
	default:
		return 0, fmt.Errorf("missing or invalid preparation")
	}
}

// HdrToken mirrors displaydevice.HdrState as a wire token.
type HdrToken uint8

const (
	HdrUnknown HdrToken = iota
	HdrEnabled
	HdrDisabled
)

var hdrToString = map[HdrToken]string{
	HdrEnabled:  "enabled",
	HdrDisabled: "disabled",
}

var hdrFromString = map[string]HdrToken{
	"enabled":  HdrEnabled,
	"disabled": HdrDisabled,
}

// String returns the token representation of the hdr state.
func (h HdrToken) String() string {
	if s, ok := hdrToString[h]; ok {
		return s
	}
	return ""
}

// MarshalJSON converts the hdr enum back to its token.
func (h HdrToken) MarshalJSON() ([]byte, error) {
	if h == HdrUnknown {
		return json.Marshal("")
	}
	return json.Marshal(h.String())
}

// UnmarshalJSON parses an hdr state token.
func (h *HdrToken) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		*h = HdrUnknown
		return nil
	}
	v, ok := hdrFromString[token]
	if !ok {
		return fmt.Errorf("invalid hdr state '%s'", raw)
	}
	*h = v
	return nil
}

func (h HdrToken) toCore() displaydevice.HdrState {
	if h == HdrEnabled {
		return displaydevice.HdrStateEnabled
	}
	return displaydevice.HdrStateDisabled
}

// Resolution is the wire form of displaydevice.Resolution.
type Resolution struct {
	Width  uint `json:"width" validate:"required"`
	Height uint `json:"height" validate:"required"`
}

func (r Resolution) toCore() displaydevice.Resolution {
	return displaydevice.Resolution{Width: r.Width, Height: r.Height}
}

// Rational is the wire form of displaydevice.Rational.
type Rational struct {
	Numerator   uint `json:"numerator" validate:"required"`
	Denominator uint `json:"denominator" validate:"required"`
}

func (r Rational) toCore() displaydevice.Rational {
	return displaydevice.Rational{Numerator: r.Numerator, Denominator: r.Denominator}
}

// ApplyRequest is the JSON body of POST /v1/sessions.
type ApplyRequest struct {
	DeviceID    string           `json:"device_id" validate:"required"`
	Preparation PreparationToken `json:"preparation" validate:"required"`
	Resolution  *Resolution      `json:"resolution,omitempty"`
	Refresh     *Rational        `json:"refresh,omitempty"`
	HdrState    *HdrToken        `json:"hdr_state,omitempty"`
}

// ToCore converts the wire request into the core's request type.
func (r ApplyRequest) ToCore() (displaydevice.SingleDisplayConfiguration, error) {
	if r.DeviceID == "" {
		return displaydevice.SingleDisplayConfiguration{}, fmt.Errorf("device_id is required")
	}
	prep, err := r.Preparation.toCore()
	if err != nil {
		return displaydevice.SingleDisplayConfiguration{}, err
	}
	req := displaydevice.SingleDisplayConfiguration{
		DeviceID:    displaydevice.DeviceID(r.DeviceID),
		Preparation: prep,
	}
	if r.Resolution != nil {
		res := r.Resolution.toCore()
		req.Resolution = &res
	}
	if r.Refresh != nil {
		refresh := r.Refresh.toCore()
		req.Refresh = &refresh
	}
	if r.HdrState != nil {
		hdr := r.HdrState.toCore()
		req.HdrState = &hdr
	}
	return req, nil
}

// ApplyResponse is the JSON body returned by POST /v1/sessions.
type ApplyResponse struct {
	Result string `json:"result"`
}

// ResultToResponse converts a core Result into its wire form.
func ResultToResponse(r displaydevice.Result) ApplyResponse {
	return ApplyResponse{Result: r.String()}
}

// RevertResponse is the JSON body returned by POST /v1/sessions/revert.
type RevertResponse struct {
	Success bool `json:"success"`
}

// ResetResponse is the JSON body returned by the administrative reset
// endpoint.
type ResetResponse struct {
	Success bool `json:"success"`
}

// Device is the wire form of an enumerated display device.
type Device struct {
	ID           string `json:"id"`
	FriendlyName string `json:"friendly_name"`
	DisplayName  string `json:"display_name"`
	HdrSupported bool   `json:"hdr_supported"`
}

// DevicesResponse is the JSON body returned by GET /v1/devices.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// FromEnumeratedDevices converts the core's device list into its wire form.
func FromEnumeratedDevices(devices []displaydevice.EnumeratedDevice) DevicesResponse {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, Device{
			ID:           string(d.ID),
			FriendlyName: d.Info.FriendlyName,
			DisplayName:  d.Info.DisplayName,
			HdrSupported: d.Info.HdrSupported,
		})
	}
	return DevicesResponse{Devices: out}
}

// ErrorResponse is the JSON body returned for any 4xx/5xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
