//go:build darwin

package sysutil

import (
	"context"
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// FlushDNSCache asks the OS to drop its DNS cache. Typically requires
// elevated privileges.
func FlushDNSCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "dscacheutil", "-flushcache").Run(); err != nil {
		return fmt.Errorf("dscacheutil: %w", err)
	}
	if err := exec.CommandContext(ctx, "killall", "-HUP", "mDNSResponder").Run(); err != nil {
		if !Elevated() {
			return fmt.Errorf("killall mDNSResponder (not running as root): %w", err)
		}
		return fmt.Errorf("killall mDNSResponder: %w", err)
	}
	return nil
}

// Elevated reports whether the process runs with root privileges.
func Elevated() bool {
	return unix.Geteuid() == 0
}
