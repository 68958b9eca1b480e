// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/warden-foundation/warden/cmd/warden/cli"
	"github.com/warden-foundation/warden/lib/config"
	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/sealed"
	"github.com/warden-foundation/warden/lib/secret"
	"github.com/warden-foundation/warden/lib/token"
)

// keyCommand groups signing-key and caller-token operations.
func keyCommand() *cli.Command {
	return &cli.Command{
		Name:    "key",
		Summary: "Signing key and caller token operations",
		Subcommands: []*cli.Command{
			keyGenerateCommand(),
			keyMintCommand(),
		},
	}
}

func keyGenerateCommand() *cli.Command {
	var stateDir string
	var sealTo []string
	var sealedOut string

	return &cli.Command{
		Name:    "generate",
		Summary: "Generate the gateway's token-signing keypair",
		Description: `Generate an Ed25519 token-signing keypair.

Without --seal-to, both halves are written plaintext to the state
directory, where the daemon picks them up. With --seal-to, the private
key is age-encrypted to the given recipients and written to
--sealed-out instead; only the public half lands in the state
directory, and the daemon is started with --sealed-signing-key.`,
		Usage: "warden key generate [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("generate", pflag.ContinueOnError)
			flagSet.StringVar(&stateDir, "state-dir", config.Default().Gateway.StateDir, "gateway state directory")
			flagSet.StringSliceVar(&sealTo, "seal-to", nil, "age recipient public keys to seal the private key to")
			flagSet.StringVar(&sealedOut, "sealed-out", "", "output file for the sealed private key (required with --seal-to)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Plaintext keypair in the state directory",
				Command:     "warden key generate",
			},
			{
				Description: "Seal the private key to the operator's age key",
				Command:     "warden key generate --seal-to age1qqpr... --sealed-out signing-key.age",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if err := os.MkdirAll(stateDir, 0700); err != nil {
				return fmt.Errorf("creating state directory: %w", err)
			}

			public, private, err := token.GenerateKeypair()
			if err != nil {
				return err
			}

			if len(sealTo) == 0 {
				if err := token.SaveKeypair(stateDir, public, private); err != nil {
					return err
				}
				fmt.Printf("keypair written to %s\npublic key: %x\n", stateDir, public)
				return nil
			}

			if sealedOut == "" {
				return fmt.Errorf("--sealed-out is required with --seal-to")
			}
			ciphertext, err := sealed.Encrypt(private, sealTo)
			if err != nil {
				return fmt.Errorf("sealing private key: %w", err)
			}
			secret.Zero(private)
			if err := os.WriteFile(sealedOut, []byte(ciphertext+"\n"), 0600); err != nil {
				return fmt.Errorf("writing sealed key: %w", err)
			}
			if err := token.SavePublicKey(stateDir, public); err != nil {
				return err
			}
			fmt.Printf("sealed private key written to %s\npublic key: %x\n", sealedOut, public)
			return nil
		},
	}
}

func keyMintCommand() *cli.Command {
	var (
		stateDir        string
		sealedKeyPath   string
		ageIdentityPath string
		subject         string
		audience        string
		ttl             time.Duration
		outPath         string
	)

	return &cli.Command{
		Name:    "mint",
		Summary: "Mint a caller token",
		Description: `Mint a short-lived Ed25519 caller token for a subject identity.

The token authenticates the subject to the gateway; what the subject
may do is decided by the gateway's role store, not the token. The
signing key comes from the state directory, or from a sealed key file
with --sealed-key and --age-identity.`,
		Usage: "warden key mint --subject <identity> --audience <scope> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mint", pflag.ContinueOnError)
			flagSet.StringVar(&stateDir, "state-dir", config.Default().Gateway.StateDir, "gateway state directory")
			flagSet.StringVar(&sealedKeyPath, "sealed-key", "", "age-encrypted signing key file")
			flagSet.StringVar(&ageIdentityPath, "age-identity", "", "age identity file for unsealing, or - for stdin")
			flagSet.StringVar(&subject, "subject", "", "identity the token authenticates (required)")
			flagSet.StringVar(&audience, "audience", "", "gateway token scope (required)")
			flagSet.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
			flagSet.StringVar(&outPath, "out", "", "output file (default: stdout)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Mint a one-hour token for alice",
				Command:     "warden key mint --subject operator/alice --audience warden/prod --out alice.token",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			subjectRef, err := ref.New(subject)
			if err != nil {
				return fmt.Errorf("--subject: %w", err)
			}
			if audience == "" {
				return fmt.Errorf("--audience is required")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			private, err := loadSigningKey(stateDir, sealedKeyPath, ageIdentityPath)
			if err != nil {
				return err
			}
			defer secret.Zero(private)

			id, err := token.NewTokenID()
			if err != nil {
				return err
			}
			now := time.Now()
			minted, err := token.Mint(private, &token.Token{
				Subject:   subjectRef,
				Audience:  audience,
				ID:        id,
				IssuedAt:  now.Unix(),
				ExpiresAt: now.Add(ttl).Unix(),
			})
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = os.Stdout.Write(minted)
				return err
			}
			if err := os.WriteFile(outPath, minted, 0600); err != nil {
				return fmt.Errorf("writing token: %w", err)
			}
			fmt.Printf("token %s for %s written to %s (expires %s)\n",
				id, subjectRef, outPath, now.Add(ttl).Format(time.RFC3339))
			return nil
		},
	}
}

// loadSigningKey returns the Ed25519 private key for minting, either
// plaintext from the state directory or unsealed from an
// age-encrypted file.
func loadSigningKey(stateDir, sealedKeyPath, ageIdentityPath string) (ed25519.PrivateKey, error) {
	if sealedKeyPath == "" {
		_, private, err := token.LoadKeypair(stateDir)
		if err != nil {
			return nil, fmt.Errorf("loading signing key (run 'warden key generate'?): %w", err)
		}
		return private, nil
	}

	if ageIdentityPath == "" {
		return nil, fmt.Errorf("--sealed-key requires --age-identity")
	}
	ciphertext, err := os.ReadFile(sealedKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading sealed key: %w", err)
	}
	identity, err := secret.ReadFromPath(ageIdentityPath)
	if err != nil {
		return nil, fmt.Errorf("reading age identity: %w", err)
	}
	defer identity.Close()

	plaintext, err := sealed.Decrypt(string(bytes.TrimSpace(ciphertext)), identity)
	if err != nil {
		return nil, fmt.Errorf("unsealing signing key: %w", err)
	}
	defer plaintext.Close()

	if plaintext.Len() != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("sealed signing key: got %d bytes, want %d", plaintext.Len(), ed25519.PrivateKeySize)
	}
	private := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(private, plaintext.Bytes())
	return private, nil
}
