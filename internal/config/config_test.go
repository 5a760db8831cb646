package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chainms/internal/chain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("CHAIN_ID", "")
	t.Setenv("CONTRACT_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.ChainID != 10 || cfg.NetworkName() != "Optimism" {
		t.Fatalf("expected Optimism target, got %d %q", cfg.ChainID, cfg.NetworkName())
	}
	if cfg.PublishRedirectDelay != 2*time.Second {
		t.Fatalf("expected 2s redirect delay, got %s", cfg.PublishRedirectDelay)
	}
	if cfg.ContractAddress != chain.DefaultContractAddress {
		t.Fatalf("unexpected contract %q", cfg.ContractAddress)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chainms.yaml")
	content := strings.Join([]string{
		"port: \"9000\"",
		"chain_id: 8453",
		"contract_backend: local",
		"editor_session_ttl: 30m",
		"supported_chains:",
		"  - id: 8453",
		"    name: Base",
		"  - id: 10",
		"    name: Optimism",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("CHAIN_ID", "")
	t.Setenv("CONTRACT_BACKEND", "")
	t.Setenv("DATABASE_PATH", "/tmp/override.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected port from file, got %q", cfg.ListenAddr)
	}
	if cfg.ChainID != 8453 || cfg.NetworkName() != "Base" {
		t.Fatalf("expected Base target, got %d %q", cfg.ChainID, cfg.NetworkName())
	}
	if cfg.ContractBackend != BackendLocal {
		t.Fatalf("expected local backend, got %q", cfg.ContractBackend)
	}
	if cfg.EditorSessionTTL != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %s", cfg.EditorSessionTTL)
	}
	if cfg.DatabasePath != "/tmp/override.db" {
		t.Fatalf("expected env to override database path, got %q", cfg.DatabasePath)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHAIN_ID", "ten")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric chain id")
	}

	t.Setenv("CHAIN_ID", "")
	t.Setenv("CONTRACT_BACKEND", "ipfs")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "unknown contract backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.ContractAddress = "66F01B8aCF9850774946CeA885f607BA8Af995e6"
	cfg.ChainID = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"invalid contract address", "chain id must not be zero"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestParseNetworks(t *testing.T) {
	networks, err := ParseNetworks("10:Optimism, 1:Ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(networks) != 2 || networks[1].ID != 1 || networks[1].Name != "Ethereum" {
		t.Fatalf("unexpected networks %+v", networks)
	}
	if _, err := ParseNetworks("optimism"); err == nil {
		t.Fatalf("expected error for missing id")
	}
}
