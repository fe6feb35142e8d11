package device

import (
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns an ordered collection of devices.
//
// Devices are kept in insertion order, which is the order used for iteration
// and status reporting. The number of devices is bounded by the capacity
// given to NewRegistry; a capacity of zero or less means unbounded.
//
// All public methods are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	devices   []*Device
	capacity  int
	clockFace ClockFace
	logger    Logger
}

// NewRegistry creates an empty registry holding at most capacity devices.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity:  capacity,
		clockFace: WallClock,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetClockFace sets the time renderer used for clock devices in status reports.
func (r *Registry) SetClockFace(face ClockFace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if face == nil {
		face = WallClock
	}
	r.clockFace = face
}

// Add constructs a device of the given kind and appends it to the registry.
//
// Returns the new device's ID, or:
//   - ErrInvalidKind if kind is not recognised
//   - ErrInvalidName if name is blank or too long
//   - ErrCapacityExceeded if the registry is full
//
// On error the registry is unchanged. Duplicate names are allowed.
func (r *Registry) Add(kind Kind, name string) (string, error) {
	if err := ValidateKind(kind); err != nil {
		return "", err
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capacity > 0 && len(r.devices) >= r.capacity {
		return "", fmt.Errorf("%w: limit is %d devices", ErrCapacityExceeded, r.capacity)
	}

	d := newDevice(GenerateID(), name, kind)
	r.devices = append(r.devices, d)

	r.logger.Info("device added", "id", d.id, "name", name, "kind", kind)
	return d.id, nil
}

// Count returns the number of devices in the registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Capacity returns the configured device limit (zero or less means unbounded).
func (r *Registry) Capacity() int {
	return r.capacity
}

// Update runs fn with exclusive access to the device set.
// Readers never observe a state in which fn has only partly run.
func (r *Registry) Update(fn func(tx *Tx)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&Tx{r: r})
}

// ForEachOfKind applies fn to every device of the given kind, in insertion order.
func (r *Registry) ForEachOfKind(kind Kind, fn func(d *Device)) {
	r.Update(func(tx *Tx) {
		tx.ForEachOfKind(kind, fn)
	})
}

// SetSettingForKind applies value to every device of the given kind.
//
// This is a broadcast: there is no way to target one device among several
// sharing a kind. A kind with no devices is a no-op. For kinds without a
// setting each device is logged and skipped.
//
// Returns the number of devices whose setting changed.
func (r *Registry) SetSettingForKind(kind Kind, value int) int {
	var applied int
	r.Update(func(tx *Tx) {
		applied = tx.SetSettingForKind(kind, value)
	})
	return applied
}

// StatusReport returns the status of every device in insertion order.
func (r *Registry) StatusReport() []StatusRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := make([]StatusRecord, 0, len(r.devices))
	for _, d := range r.devices {
		report = append(report, d.Status(r.clockFace))
	}
	return report
}

// StatusByKind returns the status of every device of the given kind.
func (r *Registry) StatusByKind(kind Kind) []StatusRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var report []StatusRecord
	for _, d := range r.devices {
		if d.kind == kind {
			report = append(report, d.Status(r.clockFace))
		}
	}
	return report
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	TotalDevices int
	Capacity     int
	PoweredOn    int
	ByKind       map[Kind]int
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.devices),
		Capacity:     r.capacity,
		ByKind:       make(map[Kind]int),
	}
	for _, d := range r.devices {
		stats.ByKind[d.kind]++
		if d.power {
			stats.PoweredOn++
		}
	}
	return stats
}

// Tx is the view of the registry handed to Update callbacks.
// It must not be retained after the callback returns.
type Tx struct {
	r *Registry
}

// ForEach applies fn to every device in insertion order.
func (tx *Tx) ForEach(fn func(d *Device)) {
	for _, d := range tx.r.devices {
		fn(d)
	}
}

// ForEachOfKind applies fn to every device of the given kind, in insertion order.
func (tx *Tx) ForEachOfKind(kind Kind, fn func(d *Device)) {
	for _, d := range tx.r.devices {
		if d.kind == kind {
			fn(d)
		}
	}
}

// SetSettingForKind is the in-transaction form of Registry.SetSettingForKind.
func (tx *Tx) SetSettingForKind(kind Kind, value int) int {
	applied := 0
	tx.ForEachOfKind(kind, func(d *Device) {
		if err := d.ApplySetting(value); err != nil {
			tx.r.logger.Warn("setting not supported",
				"id", d.id,
				"name", d.name,
				"kind", d.kind,
			)
			return
		}
		applied++
	})
	return applied
}

// StatusReport returns the status of every device as seen inside the transaction.
func (tx *Tx) StatusReport() []StatusRecord {
	report := make([]StatusRecord, 0, len(tx.r.devices))
	for _, d := range tx.r.devices {
		report = append(report, d.Status(tx.r.clockFace))
	}
	return report
}
