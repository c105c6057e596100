package main

import (
	"rtun/cmd"
)

// version is overridden at build time via
// -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
