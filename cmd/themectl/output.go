package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type outputKind string

const (
	outputYAML outputKind = "yaml"
	outputJSON outputKind = "json"
)

var format = outputYAML

func setOutputFormat(s string) error {
	switch outputKind(s) {
	case outputYAML, outputJSON:
		format = outputKind(s)
		return nil
	}
	return fmt.Errorf("unknown output format %q (want yaml or json)", s)
}

// output writes data to stdout in the selected format.
func output(data any) error {
	return outputTo(os.Stdout, format, data)
}

func outputTo(w io.Writer, kind outputKind, data any) error {
	switch kind {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", kind)
	}
}
