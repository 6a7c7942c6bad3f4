package main

import (
	"strings"
	"testing"
)

func TestDashboardCmd_Help(t *testing.T) {
	out, err := runCmd(t, "dashboard", "--help")
	if err != nil {
		t.Fatalf("dashboard --help failed: %v", err)
	}
	for _, want := range []string{"--port", "-p", "--config"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to mention %q, got: %s", want, out)
		}
	}
}

func TestServeCmd_Help(t *testing.T) {
	out, err := runCmd(t, "serve", "--help")
	if err != nil {
		t.Fatalf("serve --help failed: %v", err)
	}
	if !strings.Contains(out, "shared database pool") {
		t.Errorf("unexpected serve help: %s", out)
	}
}

func TestServeCmd_NoPlatform(t *testing.T) {
	path := writeSQLiteConfig(t, "dashboard:\n  port: 18931\n")

	_, err := runCmd(t, "serve", "-c", path)
	if err == nil || !strings.Contains(err.Error(), "no platform configured") {
		t.Fatalf("err = %v, want no platform error", err)
	}
}

func TestDashboardPort(t *testing.T) {
	tests := []struct {
		flag, configured, want int
	}{
		{0, 8080, 8080},
		{9000, 8080, 9000},
		{-1, 3000, 3000},
	}
	for _, tt := range tests {
		if got := dashboardPort(tt.flag, tt.configured); got != tt.want {
			t.Errorf("dashboardPort(%d, %d) = %d, want %d", tt.flag, tt.configured, got, tt.want)
		}
	}
}
