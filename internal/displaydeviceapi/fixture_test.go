package displaydeviceapi

import (
	"os"
	"path/filepath"
	"testing"

	"displayd/internal/displaydevice"
)

func testCatalog() Catalog {
	return Catalog{Devices: []CatalogDevice{
		{ID: "DeviceId1", FriendlyName: "Internal", DisplayName: "Laptop Panel", HdrSupported: false},
		{ID: "DeviceId2", FriendlyName: "External", DisplayName: "Living Room TV", HdrSupported: true},
	}}
}

func TestNewFixtureApiSeedsOneGroupPerDevice(t *testing.T) {
	api := NewFixtureApi(testCatalog())
	topology := api.GetCurrentTopology()
	if len(topology) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(topology))
	}
	if !api.IsPrimary("DeviceId1") {
		t.Fatal("expected the first catalog device to start primary")
	}
}

func TestNewFixtureApiDefaultsHdrDisabledWhenSupported(t *testing.T) {
	api := NewFixtureApi(testCatalog())
	hdr := api.GetCurrentHdrStates([]displaydevice.DeviceID{"DeviceId2"})
	v, ok := hdr["DeviceId2"]
	if !ok || v == nil || *v != displaydevice.HdrStateDisabled {
		t.Fatalf("expected DeviceId2 to default to disabled hdr, got %v", hdr)
	}
}

func TestFixtureApiRejectsUnknownDeviceInTopology(t *testing.T) {
	api := NewFixtureApi(testCatalog())
	bogus := displaydevice.ActiveTopology{{"DeviceIdMissing"}}
	if api.IsTopologyValid(bogus) {
		t.Fatal("expected unknown device to be rejected")
	}
}

func TestFixtureApiSetApiAccessAvailable(t *testing.T) {
	api := NewFixtureApi(testCatalog())
	if !api.IsApiAccessAvailable() {
		t.Fatal("expected fixture to start available")
	}
	api.SetApiAccessAvailable(false)
	if api.IsApiAccessAvailable() {
		t.Fatal("expected availability to reflect SetApiAccessAvailable(false)")
	}
}

func TestLoadCatalogRejectsEmptyDeviceList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("devices: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected an error for an empty catalog")
	}
}

func TestLoadCatalogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.yaml")
	content := "devices:\n  - id: DeviceId1\n    friendly_name: Internal\n    display_name: Laptop Panel\n    hdr_supported: false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Devices) != 1 || cat.Devices[0].ID != "DeviceId1" {
		t.Fatalf("unexpected catalog: %+v", cat)
	}
}
