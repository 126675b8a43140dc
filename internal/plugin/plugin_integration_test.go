package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPlugin_SystemControl_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// Find the built plugin
	pluginDir := findPluginDir("system-control")
	if pluginDir == "" {
		t.Skip("system-control plugin not built")
	}

	mgr := NewManager(filepath.Dir(pluginDir), nil)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Require("system-control", "volume-set", "brightness-set")
	if err != nil {
		t.Fatalf("Require() error = %v", err)
	}
	if _, err := os.Stat(plug.Executable); err != nil {
		t.Skip("system-control plugin not built")
	}

	executor := NewExecutor(5 * time.Second)

	// Malformed params are rejected before anything touches the host
	req := &Request{
		Action: "volume-set",
		Params: json.RawMessage(`{"percent":"loud"}`),
	}

	resp, err := executor.Execute(context.Background(), plug, req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if resp.Success {
		t.Error("expected failure for malformed params")
	}
}

func findPluginDir(name string) string {
	candidates := []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	}

	for _, dir := range candidates {
		manifest := filepath.Join(dir, ManifestFile)
		if _, err := os.Stat(manifest); err == nil {
			return dir
		}
	}
	return ""
}
