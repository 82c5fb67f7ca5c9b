package main

import (
	"fmt"

	"github.com/zulandar/studio/internal/config"
	"github.com/zulandar/studio/internal/db"
	"github.com/zulandar/studio/internal/meta"
	"gorm.io/gorm"
)

// connectFromConfig loads the config file and opens the site database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}

	return cfg, gormDB, nil
}

// registryFromConfig connects like connectFromConfig and wraps the database
// in a metadata registry sized from the config.
func registryFromConfig(configPath string) (*config.Config, *gorm.DB, *meta.Registry, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	reg, err := meta.NewRegistry(gormDB, cfg.Meta.CacheSize)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, gormDB, reg, nil
}
