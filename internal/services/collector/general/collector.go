// Package general implements the General Collector (spec.md §4.4): given a
// rising-edge trigger, resolve machine + descriptor, read one value via the
// machine session, and write value/lastupdated/extract back.
package general

import (
	"context"
	"fmt"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

// Registry resolves a descriptor by the trigger's <Field> segment
// (spec.md §4.4 step 2).
type Registry interface {
	Resolve(field string) (domain.Descriptor, bool)
}

// SessionAcquirer serializes calls into a machine's native session
// (spec.md §4.1 "Serialization").
type SessionAcquirer interface {
	WithSession(machineName string, fn func(interfaces.NativeSession) error) error
}

type Collector struct {
	registry Registry
	sessions SessionAcquirer
	cp       interfaces.ControlPlaneClient
	logger   *logging.Logger
}

func New(registry Registry, sessions SessionAcquirer, cp interfaces.ControlPlaneClient, logger *logging.Logger) *Collector {
	return &Collector{registry: registry, sessions: sessions, cp: cp, logger: logger.WithPrefix("GENERAL")}
}

// Collect runs one pass for machineName/field (spec.md §4.4 steps 2-6).
func (c *Collector) Collect(ctx context.Context, machineName, field string) error {
	descriptor, ok := c.registry.Resolve(field)
	if !ok || !descriptor.Enabled {
		c.logger.Warn("No enabled descriptor for field, resetting trigger", "machine", machineName, "field", field)
		c.resetExtract(ctx, machineName, field)
		return fmt.Errorf("general: no enabled descriptor for field %q", field)
	}

	value, err := c.read(machineName, descriptor)
	if err != nil {
		c.logger.Error("GetByString failed, writing zero value", "machine", machineName, "field", field, "error", err)
		value = domain.ZeroValue(descriptor.DataType)
	}

	c.writeBack(ctx, machineName, field, value)
	return err
}

// read acquires the machine session and issues the five-argument
// GetByString under its mutex, converting the result per §4.4 step 5.
// A non-empty binding error message is treated as a failure (§4.4 step 4 /
// §7 "Transient GetByString failure"), leaving value conversion to the
// caller so the zero value can be substituted.
func (c *Collector) read(machineName string, descriptor domain.Descriptor) (domain.Value, error) {
	var raw string
	err := c.sessions.WithSession(machineName, func(session interfaces.NativeSession) error {
		style := 0
		if descriptor.HasStyleCode {
			style = descriptor.StyleCode
		}
		value, errMessage, err := session.GetByString(
			descriptor.SubsystemIndex,
			descriptor.MajorIndex,
			descriptor.Subscript,
			descriptor.MinorIndex,
			style,
		)
		if err != nil {
			return err
		}
		if errMessage != "" {
			return fmt.Errorf("general: GetByString reported error: %s", errMessage)
		}
		raw = value
		return nil
	})
	if err != nil {
		return domain.Value{}, err
	}
	return domain.ConvertToDataType(raw, descriptor.DataType), nil
}

// writeBack writes extract-reset first, then lastupdated, then value
// (spec.md §4.4 step 6). Each write is independent; a failure on one does
// not abort the others.
func (c *Collector) writeBack(ctx context.Context, machineName, field string, value domain.Value) {
	extractNode := domain.DataFieldNodeID(machineName, field, "extract")
	if ok := c.cp.Write(ctx, extractNode, domain.BoolValue(false)); !ok {
		c.logger.Warn("Failed to reset extract trigger", "machine", machineName, "field", field)
	}

	lastUpdatedNode := domain.DataFieldNodeID(machineName, field, "lastupdated")
	if ok := c.cp.Write(ctx, lastUpdatedNode, domain.Int32Value(int32(time.Now().Unix()))); !ok {
		c.logger.Warn("Failed to write lastupdated", "machine", machineName, "field", field)
	}

	valueNode := domain.DataFieldNodeID(machineName, field, "value")
	if ok := c.cp.Write(ctx, valueNode, value); !ok {
		c.logger.Warn("Failed to write value", "machine", machineName, "field", field)
	}
}

func (c *Collector) resetExtract(ctx context.Context, machineName, field string) {
	extractNode := domain.DataFieldNodeID(machineName, field, "extract")
	if ok := c.cp.Write(ctx, extractNode, domain.BoolValue(false)); !ok {
		c.logger.Warn("Failed to reset extract trigger", "machine", machineName, "field", field)
	}
}
