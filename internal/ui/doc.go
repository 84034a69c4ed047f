// Package ui renders supervised process activity for people at a terminal:
// lifecycle events as short console log lines and captured output as text
// or YAML.
package ui
