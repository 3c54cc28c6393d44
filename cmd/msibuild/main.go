// msibuild - MSI packaging and release versioning for the WiX toolset
package main

import (
	"fmt"
	"os"

	"github.com/rescale/msibuild/internal/cli"
	"github.com/rescale/msibuild/internal/version"
)

// Version information, overridden with -ldflags at release time
var (
	Version   = "v1.2.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
