package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"couriergrid.ai/internal/sim/city"
	"couriergrid.ai/internal/sim/orders"
	"couriergrid.ai/internal/sim/weather"
)

// Catalogs holds every data file a game session loads: the city map,
// the order list, and the scripted weather bursts. Each file is
// schema-validated on load so the simulation never sees malformed data.
type Catalogs struct {
	City    city.Data
	Orders  []orders.Data
	Weather weather.Data

	CityDigest    string
	OrdersDigest  string
	WeatherDigest string
}

func Load(configDir, schemaDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadValidated(
		filepath.Join(configDir, "city.json"),
		filepath.Join(schemaDir, "city.schema.json"),
		&c.City, &c.CityDigest,
	); err != nil {
		return nil, err
	}

	var orderFile struct {
		Jobs []orders.Data `json:"jobs"`
	}
	if err := loadValidated(
		filepath.Join(configDir, "orders.json"),
		filepath.Join(schemaDir, "orders.schema.json"),
		&orderFile, &c.OrdersDigest,
	); err != nil {
		return nil, err
	}
	c.Orders = orderFile.Jobs

	if err := loadValidated(
		filepath.Join(configDir, "weather.json"),
		filepath.Join(schemaDir, "weather.schema.json"),
		&c.Weather, &c.WeatherDigest,
	); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// loadValidated reads a JSON file, validates it against its schema and
// decodes it into out. The digest identifies the exact bytes loaded so
// replays can detect catalog drift.
func loadValidated(path, schemaPath string, out any, digest *string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	*digest = sha256Hex(raw)

	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compile %s: %w", filepath.Base(schemaPath), err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
