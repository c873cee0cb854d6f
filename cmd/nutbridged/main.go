// SPDX-License-Identifier: BSD-3-Clause

// Command nutbridged is the nut-bridge process entrypoint. Run with no
// arguments to start the daemon (embedded bus plus the C4-C10 services),
// or as `nutbridged -asset=asset.toml configcheck` to resolve one asset's
// configuration candidate offline, without starting the bus or any
// drivers. Flags precede the verb, per the standard library's flag
// package.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/arunsworld/nursery"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
	"github.com/u-bmc/nut-bridge/service/bridge"
	"github.com/u-bmc/nut-bridge/service/confresolver"
	"github.com/u-bmc/nut-bridge/service/ipc"
)

func main() {
	configPath := flag.String("config", "/etc/nut-bridge/config.toml", "path to the daemon's TOML configuration file")
	assetPath := flag.String("asset", "", "path to a TOML asset description (configcheck only)")
	flag.Parse()

	if flag.NArg() > 0 && flag.Arg(0) == "configcheck" {
		if err := runConfigCheck(*assetPath); err != nil {
			fmt.Fprintln(os.Stderr, "configcheck:", err)
			os.Exit(1)
		}
		return
	}

	if err := runDaemon(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "nutbridged:", err)
		os.Exit(1)
	}
}

// daemonConfig is the on-disk TOML configuration for the running daemon.
type daemonConfig struct {
	StoreDir            string `toml:"store_dir"`
	SystemctlPath        string `toml:"systemctl_path"`
	ScannerBinary        string `toml:"scanner_binary"`
	ScanTimeout          string `toml:"scan_timeout"`
	BusTimeout           string `toml:"bus_timeout"`
	SchedulerInterval    string `toml:"scheduler_interval"`
	AssetStreamSubject   string `toml:"asset_stream_subject"`
	MetricStreamSubject  string `toml:"metric_stream_subject"`
}

func defaultDaemonConfig() daemonConfig {
	return daemonConfig{
		StoreDir:          ipc.DefaultStoreDir,
		SystemctlPath:     "/usr/bin/systemctl",
		ScannerBinary:     "/usr/sbin/nut-scanner",
		ScanTimeout:       "10s",
		BusTimeout:        "5s",
		SchedulerInterval: "1s",
	}
}

func loadDaemonConfig(path string) (daemonConfig, error) {
	cfg := defaultDaemonConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return daemonConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func runDaemon(configPath string) error {
	cfg, err := loadDaemonConfig(configPath)
	if err != nil {
		return err
	}

	scanTimeout, busTimeout, schedulerInterval, err := cfg.durations()
	if err != nil {
		return err
	}

	ipcSvc := ipc.New(ipc.WithStoreDir(cfg.StoreDir))

	opts := []bridge.Option{
		bridge.WithSystemctlPath(cfg.SystemctlPath),
		bridge.WithScannerBinary(cfg.ScannerBinary),
		bridge.WithScanTimeout(scanTimeout),
		bridge.WithBusTimeout(busTimeout),
		bridge.WithSchedulerInterval(schedulerInterval),
	}
	if cfg.AssetStreamSubject != "" {
		opts = append(opts, bridge.WithAssetStreamSubject(cfg.AssetStreamSubject))
	}
	if cfg.MetricStreamSubject != "" {
		opts = append(opts, bridge.WithMetricStreamSubject(cfg.MetricStreamSubject))
	}
	b := bridge.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	runIPC := func(ctx context.Context, c chan error) {
		c <- ipcSvc.Run(ctx, nil)
	}
	runBridge := func(ctx context.Context, c chan error) {
		c <- b.Run(ctx, ipcSvc.GetConnProvider())
	}

	return nursery.RunConcurrentlyWithContext(ctx, runIPC, runBridge)
}

func (c daemonConfig) durations() (scan, bus, scheduler time.Duration, err error) {
	if scan, err = time.ParseDuration(c.ScanTimeout); err != nil {
		return 0, 0, 0, fmt.Errorf("scan_timeout: %w", err)
	}
	if bus, err = time.ParseDuration(c.BusTimeout); err != nil {
		return 0, 0, 0, fmt.Errorf("bus_timeout: %w", err)
	}
	if scheduler, err = time.ParseDuration(c.SchedulerInterval); err != nil {
		return 0, 0, 0, fmt.Errorf("scheduler_interval: %w", err)
	}
	return scan, bus, scheduler, nil
}

// assetCheckConfig describes one asset, its endpoints, and the credential
// documents its endpoints reference, entirely offline: configcheck never
// touches the asset inventory service or the live credential store.
type assetCheckConfig struct {
	Name         string              `toml:"name"`
	IP           string              `toml:"ip"`
	Subtype      string              `toml:"subtype"`
	VerbatimFile string              `toml:"verbatim_file"`
	Ext          map[string]string   `toml:"ext"`
	Aux          map[string]string   `toml:"aux"`
	Endpoint     []endpointCheckItem `toml:"endpoint"`
	Credential   []credentialCheckItem `toml:"credential"`
}

type endpointCheckItem struct {
	Index      int    `toml:"index"`
	Protocol   string `toml:"protocol"`
	Port       string `toml:"port"`
	Credential string `toml:"credential"`
	SubAddress string `toml:"sub_address"`
}

type credentialCheckItem struct {
	ID           string `toml:"id"`
	Type         string `toml:"type"`
	Community    string `toml:"community"`
	SecName      string `toml:"sec_name"`
	SecLevel     string `toml:"sec_level"`
	AuthProtocol string `toml:"auth_protocol"`
	AuthPassword string `toml:"auth_password"`
	PrivProtocol string `toml:"priv_protocol"`
	PrivPassword string `toml:"priv_password"`
}

// staticCredentialFetcher satisfies confresolver.CredentialFetcher from a
// fixed in-memory set, the same shape the package's own tests use in place
// of a live pkg/credstore.Client.
type staticCredentialFetcher struct {
	docs map[string]*credstore.Document
}

func (f *staticCredentialFetcher) Get(_ context.Context, id string) (*credstore.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, credstore.ErrNotFound
	}
	return doc, nil
}

func runConfigCheck(assetPath string) error {
	if assetPath == "" {
		return fmt.Errorf("configcheck: -asset is required")
	}

	var check assetCheckConfig
	if _, err := toml.DecodeFile(assetPath, &check); err != nil {
		return fmt.Errorf("decode asset file %s: %w", assetPath, err)
	}

	asset, err := check.asset()
	if err != nil {
		return err
	}
	creds := check.credentialFetcher()

	resolver := confresolver.New(creds, nil)
	candidate, err := resolver.Resolve(context.Background(), asset, nil)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", asset.Name, err)
	}

	out, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func (c assetCheckConfig) asset() (*catalog.Asset, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("configcheck: asset name is required")
	}

	asset := &catalog.Asset{
		Name:      c.Name,
		IP:        c.IP,
		Subtype:   catalog.Subtype(c.Subtype),
		Ext:       c.Ext,
		Aux:       c.Aux,
		Endpoints: make(map[int]catalog.Endpoint),
	}
	for _, ep := range c.Endpoint {
		asset.Endpoints[ep.Index] = catalog.Endpoint{
			Protocol:           ep.Protocol,
			Port:               ep.Port,
			SecurityDocumentID: ep.Credential,
			SubAddress:         ep.SubAddress,
		}
	}
	if c.VerbatimFile != "" {
		payload, err := os.ReadFile(c.VerbatimFile)
		if err != nil {
			return nil, fmt.Errorf("read verbatim_file %s: %w", c.VerbatimFile, err)
		}
		asset.Verbatim = &catalog.VerbatimBlock{Separator: '\n', Payload: string(payload)}
	}
	return asset, nil
}

func (c assetCheckConfig) credentialFetcher() *staticCredentialFetcher {
	docs := make(map[string]*credstore.Document, len(c.Credential))
	for _, cred := range c.Credential {
		docs[cred.ID] = &credstore.Document{
			ID:           cred.ID,
			Type:         credstore.DocumentType(cred.Type),
			Community:    cred.Community,
			SecName:      cred.SecName,
			SecLevel:     credstore.SNMPv3Level(cred.SecLevel),
			AuthProtocol: cred.AuthProtocol,
			AuthPassword: cred.AuthPassword,
			PrivProtocol: cred.PrivProtocol,
			PrivPassword: cred.PrivPassword,
		}
	}
	return &staticCredentialFetcher{docs: docs}
}
