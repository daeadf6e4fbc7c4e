package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davidahmann/trustgate/core/attest"
	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/schema/v1/provenance"
	"github.com/davidahmann/trustgate/core/sign"
	"github.com/davidahmann/trustgate/core/token"
)

type tokenMintOutput struct {
	OK     bool          `json:"ok"`
	Claims *token.Claims `json:"claims,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type tokenVerifyOutput struct {
	OK      bool   `json:"ok"`
	TokenID string `json:"token_id,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runToken(arguments []string) int {
	if len(arguments) < 1 {
		printTokenUsage()
		return exitInvalidInput
	}
	switch arguments[0] {
	case "mint":
		return runTokenMint(arguments[1:])
	case "verify":
		return runTokenVerify(arguments[1:])
	default:
		printTokenUsage()
		return exitInvalidInput
	}
}

func printTokenUsage() {
	fmt.Println(`trustgate token mint --agent id --key private.key [--domains data,compute] [--level act] [--ttl 1h] [--attestations atts.json] [--issuers issuers.yaml] [--out token.json]
trustgate token verify --token token.json --key public.key [--agent id]`)
}

func runTokenMint(arguments []string) int {
	flagSet := flag.NewFlagSet("token mint", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var agentID string
	var domainsFlag string
	var levelFlag string
	var keyPath string
	var ttl string
	var attestationsPath string
	var issuersPath string
	var outPath string
	var helpFlag bool

	flagSet.StringVar(&agentID, "agent", "", "subject agent id")
	flagSet.StringVar(&domainsFlag, "domains", "", "comma-separated granted domains")
	flagSet.StringVar(&levelFlag, "level", "observe", "capability level (for example act or L2)")
	flagSet.StringVar(&keyPath, "key", "", "path to base64 ed25519 private key")
	flagSet.StringVar(&ttl, "ttl", "1h", "token validity window (for example 30m)")
	flagSet.StringVar(&attestationsPath, "attestations", "", "optional JSON array of attestations backing the certified tier")
	flagSet.StringVar(&issuersPath, "issuers", "", "optional trusted issuer allowlist YAML")
	flagSet.StringVar(&outPath, "out", "", "optional path to write the signed claims JSON")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		printTokenUsage()
		return exitOK
	}
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(keyPath) == "" {
		return writeJSONOutput(tokenMintOutput{Error: "--agent and --key are required"}, exitInvalidInput)
	}

	level, err := capability.ParseLevel(levelFlag)
	if err != nil {
		return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitInvalidInput)
	}
	var domains []capability.Domain
	for _, name := range strings.Split(domainsFlag, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		domain, err := capability.ParseDomain(name)
		if err != nil {
			return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitInvalidInput)
		}
		domains = append(domains, domain)
	}
	ttlDuration, err := time.ParseDuration(strings.TrimSpace(ttl))
	if err != nil || ttlDuration <= 0 {
		return writeJSONOutput(tokenMintOutput{Error: "invalid --ttl, expected positive duration"}, exitInvalidInput)
	}

	attOpts := attest.VerifyOptions{}
	if strings.TrimSpace(issuersPath) != "" {
		issuers, err := attest.LoadIssuerAllowlistFile(issuersPath)
		if err != nil {
			return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
		}
		attOpts.TrustedIssuers = issuers
	}
	var atts []provenance.Attestation
	if strings.TrimSpace(attestationsPath) != "" {
		if err := readJSONFile(attestationsPath, &atts); err != nil {
			return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
		}
	}

	priv, err := sign.LoadPrivateKeyBase64(keyPath)
	if err != nil {
		return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitInvalidInput)
	}

	claims := token.BuildClaims(agentID, domains, level, atts, attOpts)
	minted, err := token.Mint(claims, priv, token.MintOptions{TTL: ttlDuration})
	if err != nil {
		return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitInvalidInput)
	}

	if strings.TrimSpace(outPath) != "" {
		encoded, err := json.MarshalIndent(minted, "", "  ")
		if err != nil {
			return writeJSONOutput(tokenMintOutput{Error: err.Error()}, exitInternalFailure)
		}
		if err := os.WriteFile(outPath, append(encoded, '\n'), 0o600); err != nil {
			return writeJSONOutput(tokenMintOutput{Error: fmt.Sprintf("write claims: %v", err)}, exitInternalFailure)
		}
	}
	return writeJSONOutput(tokenMintOutput{OK: true, Claims: &minted}, exitOK)
}

func runTokenVerify(arguments []string) int {
	flagSet := flag.NewFlagSet("token verify", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var tokenPath string
	var keyPath string
	var agentID string
	var helpFlag bool

	flagSet.StringVar(&tokenPath, "token", "", "path to signed claims JSON")
	flagSet.StringVar(&keyPath, "key", "", "path to base64 ed25519 public key")
	flagSet.StringVar(&agentID, "agent", "", "expected subject agent id")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(tokenVerifyOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		printTokenUsage()
		return exitOK
	}
	if strings.TrimSpace(tokenPath) == "" || strings.TrimSpace(keyPath) == "" {
		return writeJSONOutput(tokenVerifyOutput{Error: "--token and --key are required"}, exitInvalidInput)
	}

	var claims token.Claims
	if err := readJSONFile(tokenPath, &claims); err != nil {
		return writeJSONOutput(tokenVerifyOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	pub, err := sign.LoadPublicKeyBase64(keyPath)
	if err != nil {
		return writeJSONOutput(tokenVerifyOutput{Error: err.Error()}, exitInvalidInput)
	}

	if err := token.Verify(claims, pub, token.VerifyOptions{ExpectedAgentID: strings.TrimSpace(agentID)}); err != nil {
		output := tokenVerifyOutput{Error: err.Error()}
		var tokenErr *token.TokenError
		if errors.As(err, &tokenErr) {
			output.Code = tokenErr.Code
		}
		return writeJSONOutput(output, exitVerifyFailed)
	}
	return writeJSONOutput(tokenVerifyOutput{
		OK:      true,
		TokenID: claims.TokenID,
		AgentID: claims.AgentID,
	}, exitOK)
}
