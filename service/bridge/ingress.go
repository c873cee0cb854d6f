// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/u-bmc/nut-bridge/pkg/assetsvc"
	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
)

// globalMonitoringMetric is the licensing gate metric name carried on the
// metric stream (§6): "1" allows monitoring, "0" denies it.
const globalMonitoringMetric = "monitoring.global@rackcontroller-0"

// metricEvent is one sample on the metric stream.
type metricEvent struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// hydrate fills the catalog from the inventory service at startup (§6
// "Used at startup"), before the asset stream delivers its first event.
func hydrate(ctx context.Context, client *assetsvc.Client, writer *catalog.Writer, logger *slog.Logger) error {
	subtypes := []string{
		string(catalog.SubtypeUPS), string(catalog.SubtypeEPDU),
		string(catalog.SubtypeSTS), string(catalog.SubtypeATS),
		string(catalog.SubtypeSensor), string(catalog.SubtypeSensorGPIO),
	}

	names, err := client.ListBySubtype(ctx, subtypes...)
	if err != nil {
		return fmt.Errorf("list assets for hydration: %w", err)
	}

	for _, name := range names {
		asset, err := client.GetDetail(ctx, name)
		if err != nil {
			logger.WarnContext(ctx, "failed to hydrate asset detail", "asset", name, "error", err)
			continue
		}
		upsertAsset(writer, asset)
	}
	writer.Commit()
	return nil
}

func upsertAsset(writer *catalog.Writer, a *catalog.Asset) {
	if a.Subtype.IsPowerDevice() {
		writer.UpsertPowerDevice(a)
		return
	}
	writer.UpsertSensor(a)
}

// handleAssetEvent applies one inbound asset-stream event to the catalog
// and, for power devices, the scheduler's tracked set (§6 "Asset stream").
func (b *Bridge) handleAssetEvent(ctx context.Context, data []byte) {
	var ev catalog.AssetEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		b.logger.WarnContext(ctx, "malformed asset event", "error", err)
		return
	}

	writer := b.catalogWriter
	if ev.Removes() {
		writer.RemoveAsset(ev.Name)
		writer.Commit()
		b.sched.markForDeletion(ctx, ev.Name)
		return
	}

	asset, err := catalog.FromEvent(&ev)
	if err != nil {
		b.logger.WarnContext(ctx, "unparseable asset event", "asset", ev.Name, "error", err)
		return
	}
	upsertAsset(writer, asset)
	writer.Commit()

	if asset.Subtype.IsPowerDevice() {
		if _, err := b.sched.ensure(ctx, asset.Name, asset.Verbatim != nil); err != nil {
			b.logger.WarnContext(ctx, "failed to track asset", "asset", asset.Name, "error", err)
		}
	}
}

// handleMetricEvent applies the licensing gate metric to the catalog's
// global monitoring flag (§6 "Licensing/metric stream").
func (b *Bridge) handleMetricEvent(ctx context.Context, data []byte) {
	var ev metricEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		b.logger.WarnContext(ctx, "malformed metric event", "error", err)
		return
	}
	if ev.Name != globalMonitoringMetric {
		return
	}
	b.catalogWriter.SetMonitoringEnabled(ev.Value == "1")
	b.catalogWriter.Commit()
}

// handleCredChange reacts to a credential-store change notification by
// rescanning every power device whose endpoint references the changed
// document (§4.9, §5 "The credential snapshot: ... refetched on
// credential notifications").
func (b *Bridge) handleCredChange(ctx context.Context, ev credstore.ChangeEvent) {
	b.logger.InfoContext(ctx, "credential store change", "operation", ev.Operation, "document_id", ev.DocumentID)
	b.sched.rescan(ctx, b.catalogReader.State(), ev.DocumentID)
}

func (b *Bridge) subscribeIngress(ctx context.Context, nc *nats.Conn) error {
	assetSub, err := nc.Subscribe(b.config.assetStreamSubject, func(msg *nats.Msg) {
		b.handleAssetEvent(ctx, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("%w: subscribe %s: %w", ErrCommunication, b.config.assetStreamSubject, err)
	}
	metricSub, err := nc.Subscribe(b.config.metricStreamSubject, func(msg *nats.Msg) {
		b.handleMetricEvent(ctx, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("%w: subscribe %s: %w", ErrCommunication, b.config.metricStreamSubject, err)
	}

	go func() {
		<-ctx.Done()
		_ = assetSub.Unsubscribe()
		_ = metricSub.Unsubscribe()
	}()

	return b.credsClient.Subscribe(ctx, func(ev credstore.ChangeEvent) {
		b.handleCredChange(ctx, ev)
	})
}
