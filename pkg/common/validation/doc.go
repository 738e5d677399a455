// Package validation provides the checks used by pool, scheduler and
// config constructors so that rejected values produce uniform
// ValidationError messages.
package validation
