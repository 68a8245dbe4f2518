// Package app wires the engine together: it loads design documents, builds
// the template catalog, and drives one resolution run from configuration to
// failure report. Entrypoints (the CLI, tests) construct an App and call
// Run; nothing in here reads flags or touches process state.
package app
