// Package automation provides the rule engine for homesim.
//
// Once per tick the engine evaluates a fixed, ordered list of rules against
// the current simulated time of day and ambient temperature. Rules mutate
// devices through the registry. When two rules write the same device, the
// later rule wins.
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────┐
//	│                  Engine (engine.go)                  │
//	│  Tick(at, temperature, registry) → TickReport        │
//	│  ┌────────────────────────────────────────────────┐  │
//	│  │  registry.Update (single write lock)           │  │
//	│  │  1. night_lights                               │  │
//	│  │  2. temperature_ac                             │  │
//	│  │  3. schedule (one pass, registry order)        │  │
//	│  │  4. status snapshot                            │  │
//	│  └────────────────────────────────────────────────┘  │
//	│                      │                               │
//	│                      ▼                               │
//	│  ┌────────────────────────────────────────────────┐  │
//	│  │  Repository (repository.go)                    │  │
//	│  │  tick_history audit rows (SQLite)              │  │
//	│  └────────────────────────────────────────────────┘  │
//	└──────────────────────────────────────────────────────┘
//
// # Thread Safety
//
// Tick holds the registry write lock for the whole rule pass, so concurrent
// readers see either the state before the tick or the state after it.
// Ticks themselves are expected to be issued sequentially by one driver.
//
// # Usage
//
//	engine := automation.NewEngine(log)
//	report := engine.Tick(automation.TimeOfDay{Hour: 12}, 30, registry)
//
//	repo := automation.NewSQLiteRepository(db.DB)
//	rec := automation.RecordFromReport(report)
//	if err := repo.CreateTick(ctx, &rec); err != nil {
//	    log.Error("recording tick", "error", err)
//	}
package automation
