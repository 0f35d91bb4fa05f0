// Package displaydeviceapi provides the concrete displaydevice.Api this
// build drives: a catalog-backed fixture adapter. A production build would
// replace it with a platform-specific driver talking to the real OS display
// subsystem; that driver is out of scope here, so this package gives the
// daemon something real to run against end to end.
package displaydeviceapi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"displayd/internal/displaydevice"
)

// CatalogDevice is one device-entry as authored in the catalog file.
type CatalogDevice struct {
	ID           string `yaml:"id"`
	FriendlyName string `yaml:"friendly_name"`
	DisplayName  string `yaml:"display_name"`
	HdrSupported bool   `yaml:"hdr_supported"`
}

// Catalog is the full set of devices a FixtureApi can enumerate.
type Catalog struct {
	Devices []CatalogDevice `yaml:"devices"`
}

// LoadCatalog reads and parses a device catalog from path.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(cat.Devices) == 0 {
		return Catalog{}, fmt.Errorf("catalog %s declares no devices", path)
	}
	return cat, nil
}

func (c Catalog) toEnumerated() []displaydevice.EnumeratedDevice {
	out := make([]displaydevice.EnumeratedDevice, 0, len(c.Devices))
	for _, d := range c.Devices {
		out = append(out, displaydevice.EnumeratedDevice{
			ID: displaydevice.DeviceID(d.ID),
			Info: displaydevice.EnumeratedDeviceInfo{
				FriendlyName: d.FriendlyName,
				DisplayName:  d.DisplayName,
				HdrSupported: d.HdrSupported,
			},
		})
	}
	return out
}
