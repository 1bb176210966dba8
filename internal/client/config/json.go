package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dcitarelli/workflow/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. The TTL is
// given in seconds.
type JsonConfig struct {
	StorageDir      string `json:"storage_dir"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c or -config flag; without one the function returns
// untouched. Read or unmarshal errors panic (caller should recover if
// desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.StorageDir != "" {
		cfg.StorageDir = jc.StorageDir
	}
	if jc.CacheTTLSeconds > 0 {
		cfg.CacheTTL = time.Duration(jc.CacheTTLSeconds) * time.Second
	}
}
