//go:build unix

package dnsbench

import (
	"bufio"
	"os"
	"strings"
)

const fallbackNameServer = "127.0.0.1"

// SystemNameServer reports the IP of the first nameserver configured in
// /etc/resolv.conf, falling back to 127.0.0.1 when none can be read. It
// allows the system resolver to participate in a benchmark as a custom
// entry.
func SystemNameServer() string {
	file, err := os.Open("/etc/resolv.conf")
	if err != nil {
		return fallbackNameServer
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && (line[0] == ';' || line[0] == '#') {
			continue
		}
		if strings.HasPrefix(line, "nameserver") {
			fields := strings.Fields(line)
			if len(fields) == 2 {
				return fields[1]
			}
		}
	}
	return fallbackNameServer
}
