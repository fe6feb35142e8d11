// Package simulation drives the rule engine over simulated time.
//
// The Driver owns the loop. Each step reads the simulated Clock, runs one
// engine tick at the current temperature, prints the frame to the Console,
// hands a TickEvent to every Observer, and advances the clock by one step.
//
// Two modes exist:
//
//   - interactive: after each tick the driver prompts for a new time of day
//     ("HH MM SS" or "quit") and a new temperature (integer or "skip").
//     Malformed answers are logged and the previous values are kept.
//   - realtime: ticks fire on a cron schedule every tick interval of wall
//     time and no input is read.
//
// Observers (MQTT state, WebSocket broadcast, tick history, telemetry and
// metrics) are optional; their failures are logged and never stop the loop.
package simulation
