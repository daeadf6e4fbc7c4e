package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/trustgate/core/preset"
	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
)

type presetLineageOutput struct {
	OK           bool                 `json:"ok"`
	Lineage      *provenance.Lineage  `json:"lineage,omitempty"`
	Verification *preset.Verification `json:"verification,omitempty"`
	Error        string               `json:"error,omitempty"`
}

func runPreset(arguments []string) int {
	if len(arguments) < 1 {
		fmt.Println("trustgate preset lineage --presets presets.json --id preset-id")
		return exitInvalidInput
	}
	switch arguments[0] {
	case "lineage":
		return runPresetLineage(arguments[1:])
	default:
		fmt.Println("trustgate preset lineage --presets presets.json --id preset-id")
		return exitInvalidInput
	}
}

func runPresetLineage(arguments []string) int {
	flagSet := flag.NewFlagSet("preset lineage", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var presetsPath string
	var presetID string
	var helpFlag bool

	flagSet.StringVar(&presetsPath, "presets", "", "path to JSON array of stored presets")
	flagSet.StringVar(&presetID, "id", "", "preset id to trace")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(presetLineageOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("trustgate preset lineage --presets presets.json --id preset-id")
		return exitOK
	}
	if strings.TrimSpace(presetID) == "" {
		return writeJSONOutput(presetLineageOutput{Error: "--id is required"}, exitInvalidInput)
	}

	registry, err := preset.NewRegistry()
	if err != nil {
		return writeJSONOutput(presetLineageOutput{Error: err.Error()}, exitInternalFailure)
	}
	if strings.TrimSpace(presetsPath) != "" {
		var stored []provenance.Preset
		if err := readJSONFile(presetsPath, &stored); err != nil {
			return writeJSONOutput(presetLineageOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
		}
		for _, item := range stored {
			if err := registry.Put(item); err != nil {
				return writeJSONOutput(presetLineageOutput{Error: fmt.Sprintf("store preset %s: %v", item.PresetID, err)}, exitCodeForError(err, exitInvalidInput))
			}
		}
	}

	lineage, err := preset.BuildLineage(registry, presetID)
	if err != nil {
		return writeJSONOutput(presetLineageOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	verification := preset.VerifyLineage(registry, lineage)
	exitCode := exitOK
	if !verification.Valid {
		exitCode = exitVerifyFailed
	}
	return writeJSONOutput(presetLineageOutput{OK: verification.Valid, Lineage: &lineage, Verification: &verification}, exitCode)
}
