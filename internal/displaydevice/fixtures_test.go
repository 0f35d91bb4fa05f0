package displaydevice

// Fixtures shared across this package's tests. Kept test-only: production
// code must never import from a _test.go file.

const (
	deviceOne   DeviceID = "DeviceId1"
	deviceTwo   DeviceID = "DeviceId2"
	deviceThree DeviceID = "DeviceId3"
	deviceFour  DeviceID = "DeviceId4"
)

func hdrPtr(h HdrState) *HdrState {
	return &h
}

// fullRevertState returns a SingleDisplayConfigState with every slice
// populated: a two-group modified topology, per-device modes, one HDR
// entry plus one explicitly-unsupported device, and a primary device that
// differs from the one live on the OS side.
func fullRevertState() SingleDisplayConfigState {
	return SingleDisplayConfigState{
		Initial: InitialState{
			Topology:      ActiveTopology{{deviceTwo, deviceThree}},
			PrimaryDevice: deviceOne,
		},
		Modified: ModifiedState{
			Topology: ActiveTopology{{deviceTwo}, {deviceThree}},
			OriginalModes: DeviceDisplayModeMap{
				deviceTwo:   {Resolution: Resolution{Width: 123, Height: 456}, Refresh: Rational{Numerator: 120, Denominator: 1}},
				deviceThree: {Resolution: Resolution{Width: 456, Height: 123}, Refresh: Rational{Numerator: 60, Denominator: 1}},
			},
			OriginalHdrStates: HdrStateMap{
				deviceTwo:   hdrPtr(HdrStateEnabled),
				deviceThree: nil,
			},
			OriginalPrimaryDevice: deviceOne,
		},
	}
}

func enumeratedCatalog() []EnumeratedDevice {
	return []EnumeratedDevice{
		{ID: deviceOne, Info: EnumeratedDeviceInfo{FriendlyName: "Display One"}},
		{ID: deviceTwo, Info: EnumeratedDeviceInfo{FriendlyName: "Display Two", HdrSupported: true}},
		{ID: deviceThree, Info: EnumeratedDeviceInfo{FriendlyName: "Display Three", HdrSupported: true}},
	}
}
