// Package timeouts defines shared timeout constants used across the registry.
package timeouts

import "time"

// RosterRequest caps one call to the external group directory.
const RosterRequest = 5 * time.Second

// CommandSync caps publishing the slash-command catalog at startup.
const CommandSync = 15 * time.Second

// Shutdown limits how long telemetry and sessions get to flush on exit.
const Shutdown = 5 * time.Second
