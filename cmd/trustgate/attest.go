package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/trustgate/core/attest"
	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
	"github.com/davidahmann/trustgate/core/schema/validate"
)

type attestVerifyOutput struct {
	OK     bool           `json:"ok"`
	Result *attest.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func runAttest(arguments []string) int {
	if len(arguments) < 1 {
		fmt.Println("trustgate attest verify --attestation att.json [--subject agent] [--issuers issuers.yaml]")
		return exitInvalidInput
	}
	switch arguments[0] {
	case "verify":
		return runAttestVerify(arguments[1:])
	default:
		fmt.Println("trustgate attest verify --attestation att.json [--subject agent] [--issuers issuers.yaml]")
		return exitInvalidInput
	}
}

func runAttestVerify(arguments []string) int {
	flagSet := flag.NewFlagSet("attest verify", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var attestationPath string
	var subject string
	var issuersPath string
	var helpFlag bool

	flagSet.StringVar(&attestationPath, "attestation", "", "path to attestation JSON")
	flagSet.StringVar(&subject, "subject", "", "expected subject agent id")
	flagSet.StringVar(&issuersPath, "issuers", "", "optional trusted issuer allowlist YAML")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(attestVerifyOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("trustgate attest verify --attestation att.json [--subject agent] [--issuers issuers.yaml]")
		return exitOK
	}
	if strings.TrimSpace(attestationPath) == "" {
		return writeJSONOutput(attestVerifyOutput{Error: "--attestation is required"}, exitInvalidInput)
	}

	raw, err := readFile(attestationPath)
	if err != nil {
		return writeJSONOutput(attestVerifyOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if err := validate.ValidateAttestation(raw); err != nil {
		return writeJSONOutput(attestVerifyOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	var att provenance.Attestation
	if err := readJSONFile(attestationPath, &att); err != nil {
		return writeJSONOutput(attestVerifyOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	opts := attest.VerifyOptions{ExpectedSubject: strings.TrimSpace(subject)}
	if strings.TrimSpace(issuersPath) != "" {
		issuers, err := attest.LoadIssuerAllowlistFile(issuersPath)
		if err != nil {
			return writeJSONOutput(attestVerifyOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
		}
		opts.TrustedIssuers = issuers
	}

	result := attest.Verify(att, opts)
	exitCode := exitOK
	if !result.Valid {
		exitCode = exitVerifyFailed
	}
	return writeJSONOutput(attestVerifyOutput{OK: result.Valid, Result: &result}, exitCode)
}
