package main

import (
	"fmt"
	"os"

	coreerrors "github.com/davidahmann/trustgate/core/errors"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

const (
	exitOK              = 0
	exitInvalidInput    = 2
	exitVerifyFailed    = 3
	exitDenied          = 4
	exitInternalFailure = 5
)

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("trustgate", version)
		return exitOK
	}
	switch arguments[1] {
	case "authorize":
		return runAuthorize(arguments[2:])
	case "attest":
		return runAttest(arguments[2:])
	case "token":
		return runToken(arguments[2:])
	case "keys":
		return runKeys(arguments[2:])
	case "preset":
		return runPreset(arguments[2:])
	case "provenance":
		return runProvenance(arguments[2:])
	case "version", "--version", "-v":
		fmt.Println("trustgate", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println(`trustgate <command> [flags]

Commands:
  authorize    evaluate an intent against a trust profile and emit a decision
  attest       verify externally issued attestations
  token        mint and verify signed capability claims
  keys         generate signing keypairs for token minting
  preset       inspect and verify preset lineage
  provenance   compute provenance-derived trust scores
  version      print the CLI version`)
}

func exitCodeForError(err error, fallbackExit int) int {
	if err == nil {
		return exitOK
	}
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInvalidInput:
		return exitInvalidInput
	case coreerrors.CategoryVerification, coreerrors.CategoryIntegrityFailed, coreerrors.CategoryExpired, coreerrors.CategoryNotTrusted:
		return exitVerifyFailed
	case coreerrors.CategoryIOFailure, coreerrors.CategoryStateContention, coreerrors.CategoryInternalFailure:
		return exitInternalFailure
	}
	return fallbackExit
}
