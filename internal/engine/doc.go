// Package engine orchestrates a resolution run end to end. A run has three
// phases: matching walks the instances sequentially, expanding template
// dependencies as it selects descriptors; concretization fans the matches
// out over a bounded worker pool, with the dedup cache collapsing
// equivalent work; emission writes each distinct artifact once, then the
// flow files and the manifest.
//
// Matching stays sequential because it is pure in-memory computation and
// the dependency expansion grows the instance list while it runs.
// Concretization is where a run spends its time (external generators) and
// is the only parallel phase. Emission is sequential again so the output
// directory fills deterministically.
package engine
