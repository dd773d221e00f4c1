package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/aodb/entitydb/internal/dbconfig"
)

// loadConfig reads an optional YAML config file (default: entitydb.yaml in
// the working directory) into a dbconfig.Config, using a one-off viper.New()
// against a single config file rather than viper's global singleton. Any
// value not present in the file keeps dbconfig.New()'s documented default.
func loadConfig(path string) (dbconfig.Config, error) {
	cfg := dbconfig.New()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("entitydb-demo: reading %s: %w", path, err)
	}

	if v.IsSet("max_attached_object_types") {
		cfg.MaxAttachedObjectTypes = v.GetInt("max_attached_object_types")
	}
	if v.IsSet("use_attached_object_db") {
		cfg.UseAttachedObjectDB = v.GetBool("use_attached_object_db")
	}
	if v.IsSet("use_entity_db") {
		cfg.UseEntityDB = v.GetBool("use_entity_db")
	}
	if v.IsSet("allow_ref_counting_on_entities") {
		cfg.AllowRefCountingOnEntities = v.GetBool("allow_ref_counting_on_entities")
	}
	if v.IsSet("optimize_threshold") {
		cfg.OptimizeThreshold = int64(v.GetInt64("optimize_threshold"))
	}
	return cfg, nil
}
