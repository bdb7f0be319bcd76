//go:build windows

package dnsbench

import (
	"os/exec"
	"regexp"
)

const fallbackNameServer = "127.0.0.1"

var nslookupAddressPattern = regexp.MustCompile(`Address:\s+([^\s]+)`)

// SystemNameServer reports the IP of the default system name server based
// on an nslookup call, falling back to 127.0.0.1 when it cannot be
// determined.
func SystemNameServer() string {
	out, err := exec.Command("nslookup").Output()
	if err != nil {
		return fallbackNameServer
	}

	matches := nslookupAddressPattern.FindStringSubmatch(string(out))
	if len(matches) != 2 {
		return fallbackNameServer
	}
	return matches[1]
}
