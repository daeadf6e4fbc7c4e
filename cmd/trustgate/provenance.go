package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/trustgate/core/provenance"
)

type provenanceScoreOutput struct {
	OK           bool   `json:"ok"`
	CreationType string `json:"creation_type,omitempty"`
	Baseline     int    `json:"baseline,omitempty"`
	Modifier     int    `json:"modifier,omitempty"`
	InitialScore int    `json:"initial_score,omitempty"`
	Error        string `json:"error,omitempty"`
}

func runProvenance(arguments []string) int {
	if len(arguments) < 1 {
		fmt.Println("trustgate provenance score --type cloned [--baseline 250]")
		return exitInvalidInput
	}
	switch arguments[0] {
	case "score":
		return runProvenanceScore(arguments[1:])
	default:
		fmt.Println("trustgate provenance score --type cloned [--baseline 250]")
		return exitInvalidInput
	}
}

func runProvenanceScore(arguments []string) int {
	flagSet := flag.NewFlagSet("provenance score", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var creationType string
	var baseline int
	var helpFlag bool

	flagSet.StringVar(&creationType, "type", "", "creation type: fresh, cloned, evolved, promoted, imported")
	flagSet.IntVar(&baseline, "baseline", provenance.DefaultBaseline, "baseline trust score before the provenance modifier")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(provenanceScoreOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("trustgate provenance score --type cloned [--baseline 250]")
		return exitOK
	}
	creationType = strings.TrimSpace(strings.ToLower(creationType))
	if creationType == "" {
		return writeJSONOutput(provenanceScoreOutput{Error: "--type is required"}, exitInvalidInput)
	}

	score, err := provenance.InitialTrustScore(creationType, baseline)
	if err != nil {
		return writeJSONOutput(provenanceScoreOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	modifier, err := provenance.Modifier(creationType)
	if err != nil {
		return writeJSONOutput(provenanceScoreOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	return writeJSONOutput(provenanceScoreOutput{
		OK:           true,
		CreationType: creationType,
		Baseline:     baseline,
		Modifier:     modifier,
		InitialScore: score,
	}, exitOK)
}
