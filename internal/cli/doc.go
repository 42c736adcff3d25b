// Package cli parses the retrace command line into an app.Config. It owns
// the usage text and the mapping from bad arguments to exit codes; it never
// touches the engine itself.
package cli
