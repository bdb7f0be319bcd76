//go:build linux

package sysutil

import (
	"context"
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// flushCommands are tried in order, newest tooling first.
var flushCommands = [][]string{
	{"resolvectl", "flush-caches"},
	{"systemd-resolve", "--flush-caches"},
	{"service", "nscd", "restart"},
}

// FlushDNSCache asks the OS to drop its DNS cache. Typically requires
// elevated privileges.
func FlushDNSCache() error {
	var lastErr error
	for _, cmd := range flushCommands {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		err := exec.CommandContext(ctx, cmd[0], cmd[1:]...).Run()
		cancel()
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("%s: %w", cmd[0], err)
	}
	if !Elevated() {
		return fmt.Errorf("could not flush DNS cache (not running as root): %w", lastErr)
	}
	return fmt.Errorf("could not flush DNS cache: %w", lastErr)
}

// Elevated reports whether the process runs with root privileges.
func Elevated() bool {
	return unix.Geteuid() == 0
}
