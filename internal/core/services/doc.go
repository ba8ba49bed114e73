// Package services implements the driving port interfaces.
// Services hold the consistency logic: the multi-store deletion protocol,
// the integrity audit, auto-repair and the scheduler that runs them.
// They reach storage only through driven ports.
package services
