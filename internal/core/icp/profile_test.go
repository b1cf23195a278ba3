package icp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	perr "quorum/internal/platform/errors"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default("ws-1")
	if err := Validate(&p); err != nil {
		t.Fatalf("default profile must validate: %v", err)
	}
}

func TestValidateRejectsBadSizing(t *testing.T) {
	p := Default("ws-1")
	p.Sizing = Sizing{Min: 5, Ideal: 2, Max: 10}
	err := Validate(&p)
	if err == nil {
		t.Fatalf("expected sizing violation")
	}
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("expected config error code, got %v", perr.CodeOf(err))
	}
}

func TestValidateRejectsMissingWorkspace(t *testing.T) {
	p := Default("")
	if err := Validate(&p); err == nil {
		t.Fatalf("expected required violation for workspaceId")
	}
}

func TestValidateRejectsUnknownSalesCycle(t *testing.T) {
	p := Default("ws-1")
	p.SalesCycle = "quarterly"
	if err := Validate(&p); err == nil {
		t.Fatalf("expected oneof violation for salesCycle")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	p := Default("ws-load")
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.WorkspaceID != "ws-load" || got.Sizing.Ideal != p.Sizing.Ideal {
		t.Fatalf("loaded profile differs: %+v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("expected config error code, got %v", perr.CodeOf(err))
	}
}
