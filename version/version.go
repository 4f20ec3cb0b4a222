package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	VERSION  = "unknown"
	REVISION = "HEAD"
	BUILTAT  = "now"
)

// String renders the build stamp printed by --version.
func String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "insntrace %s\n", VERSION)
	fmt.Fprintf(&b, "Git hash:       %s\n", REVISION)
	fmt.Fprintf(&b, "Built:          %s\n", BUILTAT)
	fmt.Fprintf(&b, "Golang version: %s\n", runtime.Version())
	fmt.Fprintf(&b, "Supported arch: ppc64 ppc64le amd64 arm64 (host %s)\n", runtime.GOARCH)
	return b.String()
}
