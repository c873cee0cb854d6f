// SPDX-License-Identifier: BSD-3-Clause

package unitmgr

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// fakeSystemctl writes a shell script standing in for systemctl(1), whose
// exit code is controlled by the FAKE_SYSTEMCTL_EXIT env var so tests don't
// depend on a real systemd being present.
func fakeSystemctl(t *testing.T, exitCode int) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "systemctl")
	script := "#!/bin/sh\nexit " + itoa(exitCode) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake systemctl: %v", err)
	}
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestStartSucceeds(t *testing.T) {
	c := New(fakeSystemctl(t, 0))
	if err := c.Start(context.Background(), "nut-driver@ups-1.service"); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestStartFailureWrapsCommunicationError(t *testing.T) {
	c := New(fakeSystemctl(t, 1))
	err := c.Start(context.Background(), "nut-driver@ups-1.service")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestIsActiveFalseOnNonZeroExit(t *testing.T) {
	c := New(fakeSystemctl(t, 3))
	active, err := c.IsActive(context.Background(), "nut-driver@ups-1.service")
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if active {
		t.Fatalf("expected inactive")
	}
}

func TestIsActiveTrueOnZeroExit(t *testing.T) {
	c := New(fakeSystemctl(t, 0))
	active, err := c.IsActive(context.Background(), "nut-driver@ups-1.service")
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if !active {
		t.Fatalf("expected active")
	}
}
