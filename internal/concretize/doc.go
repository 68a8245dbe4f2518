// Package concretize turns a match into artifact content. Each strategy is
// a Handler registered by kind: static substitution expands parameter
// bindings into the template body, the generator strategy delegates to an
// external process and collects its output file.
//
// Failures carry their classification as error types. A SubstitutionError
// means the instance and template disagree about parameters, a BuildError
// means the strategy itself could not produce usable output. Callers fold
// these into the run manifest without parsing message text.
package concretize
