package symtab

import (
	"debug/elf"
	"fmt"

	"github.com/jschwinger233/insntrace/internal/procmaps"
)

// Policy decides the base offset of the table built for a region; idx is the
// region's position in listing order.
type Policy interface {
	BaseOffset(idx int, region procmaps.Region, info ObjectInfo) uint64
}

// FirstRegion treats the first listed executable region as the main binary
// holding absolute symbol values. Every other region is relative to its
// load address.
type FirstRegion struct{}

func (FirstRegion) BaseOffset(idx int, region procmaps.Region, _ ObjectInfo) uint64 {
	if idx == 0 {
		return 0
	}
	return region.Start
}

// Executable treats regions backed by the process executable as absolute.
type Executable struct {
	Path string
}

func (p Executable) BaseOffset(_ int, region procmaps.Region, _ ObjectInfo) uint64 {
	if p.Path != "" && region.Path == p.Path {
		return 0
	}
	return region.Start
}

// ELFType derives the bias from the object itself: ET_EXEC objects are
// linked at their runtime addresses, anything else is biased by the
// distance between the mapping and the executable segment it maps.
type ELFType struct{}

func (ELFType) BaseOffset(_ int, region procmaps.Region, info ObjectInfo) uint64 {
	if info.Type == elf.ET_EXEC {
		return 0
	}
	for _, seg := range info.Segments {
		if seg.Off == region.Offset && region.Start >= seg.Vaddr {
			return region.Start - seg.Vaddr
		}
	}
	return region.Start
}

const (
	PolicyFirst = "first"
	PolicyExe   = "exe"
	PolicyELF   = "elf"
)

var PolicyNames = []string{PolicyFirst, PolicyExe, PolicyELF}

// ParsePolicy maps a policy name to its implementation. exe is only used by
// the exe policy.
func ParsePolicy(name, exe string) (Policy, error) {
	switch name {
	case "", PolicyFirst:
		return FirstRegion{}, nil
	case PolicyExe:
		return Executable{Path: exe}, nil
	case PolicyELF:
		return ELFType{}, nil
	}
	return nil, fmt.Errorf("unknown offset policy %q", name)
}
