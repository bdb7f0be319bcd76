//go:build windows

package sysutil

import (
	"context"
	"fmt"
	"os/exec"
)

// FlushDNSCache asks the OS to drop its DNS cache.
func FlushDNSCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "ipconfig", "/flushdns").Run(); err != nil {
		return fmt.Errorf("ipconfig /flushdns: %w", err)
	}
	return nil
}

// Elevated always reports true, ipconfig /flushdns does not need
// administrator rights.
func Elevated() bool {
	return true
}
