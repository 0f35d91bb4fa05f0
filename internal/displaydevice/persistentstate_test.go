package displaydevice

import (
	"errors"
	"testing"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	state := fullRevertState()
	blob, err := serializeState(state)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := deserializeState(blob)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !EqualTopology(got.Initial.Topology, state.Initial.Topology) {
		t.Fatalf("initial topology mismatch: got %v want %v", got.Initial.Topology, state.Initial.Topology)
	}
	if got.Initial.PrimaryDevice != state.Initial.PrimaryDevice {
		t.Fatalf("initial primary mismatch: got %v want %v", got.Initial.PrimaryDevice, state.Initial.PrimaryDevice)
	}
	if !EqualTopology(got.Modified.Topology, state.Modified.Topology) {
		t.Fatalf("modified topology mismatch: got %v want %v", got.Modified.Topology, state.Modified.Topology)
	}
	if !EqualDisplayModeMap(got.Modified.OriginalModes, state.Modified.OriginalModes) {
		t.Fatalf("modes mismatch: got %v want %v", got.Modified.OriginalModes, state.Modified.OriginalModes)
	}
	if !EqualHdrStateMap(got.Modified.OriginalHdrStates, state.Modified.OriginalHdrStates) {
		t.Fatalf("hdr mismatch: got %v want %v", got.Modified.OriginalHdrStates, state.Modified.OriginalHdrStates)
	}
}

func TestDeserializeRejectsUnknownSchemaVersion(t *testing.T) {
	blob := []byte(`{"version":99,"initial":{"topology":[["DeviceId1"]],"primary_device":"DeviceId1"},"modified":{"topology":[["DeviceId1"]]}}`)
	_, err := deserializeState(blob)
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}

func TestDeserializeRejectsEmptyModifiedTopology(t *testing.T) {
	blob := []byte(`{"version":1,"initial":{"topology":[["DeviceId1"]],"primary_device":"DeviceId1"},"modified":{"topology":[]}}`)
	_, err := deserializeState(blob)
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState for empty modified topology, got %v", err)
	}
}

func TestDeserializeRejectsDeviceInTwoGroups(t *testing.T) {
	blob := []byte(`{"version":1,"initial":{"topology":[],"primary_device":""},"modified":{"topology":[["DeviceId1"],["DeviceId1"]]}}`)
	_, err := deserializeState(blob)
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState for device in two groups, got %v", err)
	}
}

func TestPersistentStateCachesAfterFirstLoad(t *testing.T) {
	store := &fakeStore{}
	seedStore(store, fullRevertState())
	ps := NewPersistentState(store)

	if _, err := ps.GetState(); err != nil {
		t.Fatalf("first load: %v", err)
	}
	store.has = false // mutate the backend directly; cache must not notice
	state, err := ps.GetState()
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if state == nil {
		t.Fatal("expected cached state, got nil")
	}
}

func TestPersistentStateClearOnNilPersist(t *testing.T) {
	store := &fakeStore{}
	seedStore(store, fullRevertState())
	ps := NewPersistentState(store)

	if err := ps.PersistState(nil); err != nil {
		t.Fatalf("persist nil: %v", err)
	}
	if store.has {
		t.Fatal("expected backend cleared")
	}
	if store.clearCalls != 1 {
		t.Fatalf("expected 1 clear call, got %d", store.clearCalls)
	}
	state, err := ps.GetState()
	if err != nil || state != nil {
		t.Fatalf("expected cached nil state, got %v err=%v", state, err)
	}
}

func TestPersistentStateDoesNotCacheOnStoreFailure(t *testing.T) {
	store := &fakeStore{failStore: true}
	ps := NewPersistentState(store)
	state := fullRevertState()

	if err := ps.PersistState(&state); err == nil {
		t.Fatal("expected persist failure to surface")
	}
	if ps.didCache {
		t.Fatal("a failed persist must not update the cache")
	}
}

func TestPersistentStateMalformedPayloadSurfacesErrorWithoutCaching(t *testing.T) {
	store := &fakeStore{has: true, blob: []byte(`not json`)}
	ps := NewPersistentState(store)

	if _, err := ps.GetState(); err == nil {
		t.Fatal("expected deserialize error to surface")
	}
	if ps.didCache {
		t.Fatal("malformed payload must not be cached")
	}
}
