// Package botcore is the control software for an FRC robot built on a
// command scheduler.
//
// The scheduler and its Commands are in package 'core', operator
// bindings are in 'oi', autonomous routine selection is in 'auto',
// and the simulated robot process is in `cmd/botsim`.
package botcore
