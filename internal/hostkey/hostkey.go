// Package hostkey implements the Server Builder's host-key material helper
// (spec.md §4.7): load an existing OpenSSH Ed25519 private key from disk,
// or generate and persist a fresh one on first run.
package hostkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// GetOrCreate loads the OpenSSH Ed25519 private key at path, or generates
// one and persists it if the file does not exist. It returns an ssh.Signer
// whose public material is stable across restarts for the same path,
// extending the teacher's in-memory-only sshproxy.GenHostKey with the
// persistence spec.md requires (see DESIGN.md).
func GetOrCreate(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("tuissh: hostkey: parse %s: %w", path, err)
		}
		return signer, nil
	case os.IsNotExist(err):
		return generateAndPersist(path)
	default:
		return nil, fmt.Errorf("tuissh: hostkey: read %s: %w", path, err)
	}
}

// Generate returns a fresh in-memory Ed25519 host key without touching
// disk, the default used when no HostKeyPath is configured.
func Generate() (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("tuissh: hostkey: generate: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("tuissh: hostkey: signer: %w", err)
	}
	return signer, nil
}

func generateAndPersist(path string) (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("tuissh: hostkey: generate: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		return nil, fmt.Errorf("tuissh: hostkey: marshal: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, fmt.Errorf("tuissh: hostkey: write %s: %w", path, err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("tuissh: hostkey: signer: %w", err)
	}
	return signer, nil
}
