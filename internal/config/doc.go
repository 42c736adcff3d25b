// Package config defines the format-agnostic declaration model that every
// front-end (HCL, YAML) parses into and the builder consumes. Keeping the
// parsed shape independent of the source syntax means the builder and the
// app never care which file format declared a model.
package config
