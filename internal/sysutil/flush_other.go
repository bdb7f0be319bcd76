//go:build !(linux || darwin || windows)

package sysutil

import "errors"

// FlushDNSCache is not supported on this platform.
func FlushDNSCache() error {
	return errors.New("DNS cache flush is not supported on this platform")
}

// Elevated reports whether the process runs with root privileges. Unknown
// platforms report false.
func Elevated() bool {
	return false
}
