// Package generation defines the boundary between the application core and
// the external plan-generation provider, following the hexagonal
// architecture pattern.
package generation
