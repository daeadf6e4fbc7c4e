package main

import (
	"encoding/json"
	"fmt"
	"os"

	coreerrors "github.com/davidahmann/trustgate/core/errors"
)

// writeJSONOutput prints the output document on one line and returns
// the exit code so command handlers can end with a single call.
func writeJSONOutput(output any, exitCode int) int {
	encoded, err := json.Marshal(output)
	if err != nil {
		fmt.Println(`{"ok":false,"error":"failed to encode output","error_category":"internal_failure"}`)
		return exitInternalFailure
	}
	fmt.Println(string(encoded))
	return exitCode
}

func readFile(path string) ([]byte, error) {
	// #nosec G304 -- input paths are explicit local user input.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.Wrap(fmt.Errorf("read %s: %w", path, err),
			coreerrors.CategoryIOFailure, "input_read",
			"check that the path exists and is readable", false)
	}
	return raw, nil
}

func readJSONFile(path string, target any) error {
	raw, err := readFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return coreerrors.Wrap(fmt.Errorf("parse %s: %w", path, err),
			coreerrors.CategoryInvalidInput, "input_parse",
			"the file must contain valid JSON", false)
	}
	return nil
}
