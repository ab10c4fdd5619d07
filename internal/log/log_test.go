package log

import (
	"strings"
	"testing"

	"github.com/tessro/earshot/internal/config"
	"github.com/tessro/earshot/internal/filesystem"
)

func TestSetupWritesToFile(t *testing.T) {
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)
	t.Cleanup(func() { Use(newDiscard()) })

	closer, err := Setup(config.LogConfig{Level: "debug", File: "/logs/earshot.log", JSON: true})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	For("engine").WithField("resource", "42").Debug("selected")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := filesystem.API().ReadFile("/logs/earshot.log")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{`"component":"engine"`, `"resource":"42"`, `"msg":"selected"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %s", out, want)
		}
	}
}

func TestSetupUnknownLevelFallsBackToInfo(t *testing.T) {
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)
	t.Cleanup(func() { Use(newDiscard()) })

	if _, err := Setup(config.LogConfig{Level: "chatty", File: "/logs/x.log"}); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if got := For("x").Logger.GetLevel().String(); got != "info" {
		t.Errorf("level = %s, want info", got)
	}
}
