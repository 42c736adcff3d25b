// Package nodename enforces the identifier schema for input and step
// names: a letter or underscore followed by letters, digits, underscores or
// hyphens. Centralizing the check keeps the engine and every declaration
// front-end in agreement about what a valid name is.
package nodename

import (
	"fmt"
	"regexp"
)

var nameRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Validate returns an error describing why the name is unusable, or nil.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("node name must not be empty")
	}
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid node name %q: must match %s", name, nameRegexp.String())
	}
	return nil
}
