package displaydevice

// deviceKnown reports whether id appears in the enumerated device list.
func deviceKnown(devices []EnumeratedDevice, id DeviceID) bool {
	for _, d := range devices {
		if d.ID == id {
			return true
		}
	}
	return false
}

// computeTargetTopology derives the topology the manager must reach to
// satisfy request, given the live topology and the enumerated device
// catalog. It implements spec step §4.3.1.3.
func computeTargetTopology(current ActiveTopology, devices []EnumeratedDevice, req SingleDisplayConfiguration) (ActiveTopology, error) {
	if req.DeviceID == "" {
		return nil, ErrInvalidRequest
	}
	if !deviceKnown(devices, req.DeviceID) {
		return nil, ErrInvalidRequest
	}

	switch req.Preparation {
	case VerifyOnly:
		if !Contains(current, req.DeviceID) {
			return nil, ErrInvalidRequest
		}
		return current, nil

	case EnsureActive:
		if Contains(current, req.DeviceID) {
			return current, nil
		}
		return append(cloneTopology(current), []DeviceID{req.DeviceID}), nil

	case EnsurePrimary:
		target := current
		if !Contains(current, req.DeviceID) {
			target = append(cloneTopology(current), []DeviceID{req.DeviceID})
		}
		return target, nil

	case EnsureOnlyDisplay:
		return ActiveTopology{{req.DeviceID}}, nil

	default:
		return nil, ErrInvalidRequest
	}
}

// requiresPrimary reports whether the preparation policy demands the target
// device become the sole primary.
func requiresPrimary(p DevicePreparation) bool {
	return p == EnsurePrimary || p == EnsureOnlyDisplay
}
