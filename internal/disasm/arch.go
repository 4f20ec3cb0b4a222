package disasm

import (
	"strings"

	"github.com/elastic/go-sysinfo"
	"github.com/pkg/errors"
)

type Arch string

const (
	PPC64   Arch = "ppc64"
	PPC64LE Arch = "ppc64le"
	AMD64   Arch = "amd64"
	ARM64   Arch = "arm64"
)

var ErrUnsupportedArch = errors.New("unsupported architecture")

var Arches = []Arch{PPC64, PPC64LE, AMD64, ARM64}

// ParseArch accepts Go and uname style names.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "ppc64", "powerpc64", "ppc64be":
		return PPC64, nil
	case "ppc64le", "powerpc64le":
		return PPC64LE, nil
	case "amd64", "x86_64", "x86-64":
		return AMD64, nil
	case "arm64", "aarch64":
		return ARM64, nil
	}
	return "", errors.WithMessage(ErrUnsupportedArch, s)
}

// HostArch reports the architecture of the machine running the tracer.
func HostArch() (_ Arch, err error) {
	host, err := sysinfo.Host()
	if err != nil {
		err = errors.Wrap(err, "host info")
		return
	}
	return ParseArch(host.Info().Architecture)
}
