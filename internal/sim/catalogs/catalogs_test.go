package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ShippedConfigs(t *testing.T) {
	c, err := Load("../../../configs", "../../../schemas")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.City.Name == "" || len(c.City.Tiles) == 0 {
		t.Fatalf("city not loaded: %+v", c.City)
	}
	if len(c.Orders) == 0 {
		t.Fatalf("no orders loaded")
	}
	if len(c.Weather.Bursts) == 0 {
		t.Fatalf("no weather bursts loaded")
	}
	for _, d := range []string{c.CityDigest, c.OrdersDigest, c.WeatherDigest} {
		if len(d) != 64 {
			t.Fatalf("bad digest %q", d)
		}
	}
}

func TestLoad_RejectsInvalidCity(t *testing.T) {
	dir := t.TempDir()
	// Missing required "legend".
	bad := `{"name":"x","tiles":["RR"]}`
	if err := os.WriteFile(filepath.Join(dir, "city.json"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out struct{}
	var digest string
	err := loadValidated(
		filepath.Join(dir, "city.json"),
		"../../../schemas/city.schema.json",
		&out, &digest,
	)
	if err == nil {
		t.Fatalf("expected schema validation error")
	}
}
