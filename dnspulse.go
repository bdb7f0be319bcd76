package main

import "github.com/dnspulse/dnspulse/cmd"

func main() {
	cmd.Execute()
}
