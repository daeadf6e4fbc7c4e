package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidahmann/trustgate/core/sign"
)

type keysGenerateOutput struct {
	OK             bool   `json:"ok"`
	KeyID          string `json:"key_id,omitempty"`
	PublicKeyPath  string `json:"public_key_path,omitempty"`
	PrivateKeyPath string `json:"private_key_path,omitempty"`
	Error          string `json:"error,omitempty"`
}

func runKeys(arguments []string) int {
	if len(arguments) < 1 {
		fmt.Println("trustgate keys generate [--out-dir keys] [--prefix trustgate] [--force]")
		return exitInvalidInput
	}
	switch arguments[0] {
	case "generate":
		return runKeysGenerate(arguments[1:])
	default:
		fmt.Println("trustgate keys generate [--out-dir keys] [--prefix trustgate] [--force]")
		return exitInvalidInput
	}
}

func runKeysGenerate(arguments []string) int {
	flagSet := flag.NewFlagSet("keys generate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var outDir string
	var prefix string
	var force bool
	var helpFlag bool

	flagSet.StringVar(&outDir, "out-dir", "keys", "directory for the generated key files")
	flagSet.StringVar(&prefix, "prefix", "trustgate", "key file name prefix")
	flagSet.BoolVar(&force, "force", false, "overwrite existing key files")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(keysGenerateOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("trustgate keys generate [--out-dir keys] [--prefix trustgate] [--force]")
		return exitOK
	}
	outDir = strings.TrimSpace(outDir)
	prefix = strings.TrimSpace(prefix)
	if outDir == "" || prefix == "" {
		return writeJSONOutput(keysGenerateOutput{Error: "--out-dir and --prefix must not be empty"}, exitInvalidInput)
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return writeJSONOutput(keysGenerateOutput{Error: fmt.Sprintf("create key directory: %v", err)}, exitInternalFailure)
	}
	privatePath := filepath.Join(outDir, prefix+"_private.key")
	publicPath := filepath.Join(outDir, prefix+"_public.key")
	if !force {
		if _, err := os.Stat(privatePath); err == nil {
			return writeJSONOutput(keysGenerateOutput{Error: "key file already exists (use --force): " + privatePath}, exitInvalidInput)
		}
		if _, err := os.Stat(publicPath); err == nil {
			return writeJSONOutput(keysGenerateOutput{Error: "key file already exists (use --force): " + publicPath}, exitInvalidInput)
		}
	}

	pair, err := sign.GenerateKeyPair()
	if err != nil {
		return writeJSONOutput(keysGenerateOutput{Error: err.Error()}, exitInternalFailure)
	}
	privateEncoded := base64.StdEncoding.EncodeToString(pair.Private) + "\n"
	if err := os.WriteFile(privatePath, []byte(privateEncoded), 0o600); err != nil {
		return writeJSONOutput(keysGenerateOutput{Error: fmt.Sprintf("write private key: %v", err)}, exitInternalFailure)
	}
	publicEncoded := base64.StdEncoding.EncodeToString(pair.Public) + "\n"
	if err := os.WriteFile(publicPath, []byte(publicEncoded), 0o600); err != nil {
		return writeJSONOutput(keysGenerateOutput{Error: fmt.Sprintf("write public key: %v", err)}, exitInternalFailure)
	}

	return writeJSONOutput(keysGenerateOutput{
		OK:             true,
		KeyID:          sign.KeyID(pair.Public),
		PublicKeyPath:  publicPath,
		PrivateKeyPath: privatePath,
	}, exitOK)
}
