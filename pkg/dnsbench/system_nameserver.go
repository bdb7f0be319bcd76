//go:build !(unix || windows)

package dnsbench

// SystemNameServer reports the IP of the default system name server.
func SystemNameServer() string {
	return "127.0.0.1"
}
