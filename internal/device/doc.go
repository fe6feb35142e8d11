// Package device provides the appliance model and Device Registry for homesim.
//
// A Device is one simulated appliance. Its Kind is drawn from a closed set
// (light, air conditioner, TV, clock, fan, oven, washing machine) and decides
// which capabilities apply: every kind can be switched on and off, but only
// lights, air conditioners and TVs carry a setting (brightness, target
// temperature, volume).
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────┐
//	│                      Device Registry                       │
//	│                                                            │
//	│  ┌──────────────────┐          ┌──────────────────┐        │
//	│  │     Registry     │─────────▶│      Device      │        │
//	│  │  (registry.go)   │  owns    │   (device.go)    │        │
//	│  │                  │          │                  │        │
//	│  │ • ordered slice  │          │ • power on/off   │        │
//	│  │ • capacity bound │          │ • kind setting   │        │
//	│  │ • Update (tick)  │          │ • status record  │        │
//	│  └──────────────────┘          └──────────────────┘        │
//	│           │                             │                  │
//	│           ▼                             ▼                  │
//	│  ┌──────────────────┐          ┌──────────────────┐        │
//	│  │   Rule Engine    │          │   Kind traits    │        │
//	│  │  (automation)    │          │   (types.go)     │        │
//	│  └──────────────────┘          └──────────────────┘        │
//	└───────────────────────────────────────────────────────────┘
//
// # Settings are broadcast by kind
//
// SetSettingForKind applies a value to every device of the given kind. There
// is deliberately no way to change the setting of one device among several of
// the same kind.
//
// # Thread Safety
//
// The Registry is the single serialisation point for device state. Update runs
// a whole batch of mutations under the write lock, so StatusReport never sees
// a half-applied tick.
package device
