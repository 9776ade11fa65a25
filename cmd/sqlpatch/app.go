package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/loykin/sqlpatch/cmd/sqlpatch/config"
	"github.com/loykin/sqlpatch/internal/common"
	"github.com/loykin/sqlpatch/internal/metrics"
	"github.com/loykin/sqlpatch/internal/migration"
	"github.com/loykin/sqlpatch/internal/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

// app is what every subcommand needs: an open migrator and, when
// requested, a registry to dump after the command.
type app struct {
	migrator *migration.Migrator
	registry *prometheus.Registry
	textfile string
}

// openApp loads the config named by viper's "config" key, configures
// logging and opens the migrator on the configured store.
func openApp(ctx context.Context) (*app, error) {
	v := viper.GetViper()
	configPath, ok := util.TrimEmptyCheck(v.GetString("config"))
	if !ok {
		return nil, fmt.Errorf("no config file given (use --config or SQLPATCH_CONFIG)")
	}

	var doc config.ConfigDoc
	if err := doc.Load(configPath); err != nil {
		return nil, err
	}
	if err := doc.SetupLogging(); err != nil {
		return nil, err
	}
	module, err := doc.BuildModule()
	if err != nil {
		return nil, err
	}
	storeCfg, err := doc.StoreConfig()
	if err != nil {
		return nil, err
	}
	isolation, err := doc.IsolationLevel()
	if err != nil {
		return nil, err
	}

	rt := &app{textfile: strings.TrimSpace(v.GetString("metrics_textfile"))}
	opts := []migration.Option{
		migration.WithIsolation(isolation),
		migration.WithLogger(common.GetLogger().WithComponent("migrator")),
	}
	if rt.textfile != "" {
		rt.registry = prometheus.NewRegistry()
		opts = append(opts, migration.WithMetrics(metrics.NewCollector("sqlpatch", rt.registry)))
	}

	m, err := migration.Open(ctx, module, storeCfg, opts...)
	if err != nil {
		return nil, err
	}
	rt.migrator = m
	return rt, nil
}

// Close releases the store and writes the metrics textfile if one was requested.
func (rt *app) Close() error {
	err := rt.migrator.Close()
	if rt.registry != nil {
		if werr := prometheus.WriteToTextfile(rt.textfile, rt.registry); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// withApp opens the app, runs fn and closes it, keeping fn's error first.
func withApp(ctx context.Context, fn func(*migration.Migrator) error) (err error) {
	rt, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(rt.migrator)
}
