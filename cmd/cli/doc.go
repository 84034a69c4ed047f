// Package cli constructs the toolrun command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// around the process supervisor. It exposes helpers to build reusable
// application instances and to execute the default command set.
package cli
