// Package cli turns command-line arguments into an app.Config. It owns
// flag parsing, input validation, and the mapping from bad input to
// process exit codes; everything past argument handling lives in app.
package cli
