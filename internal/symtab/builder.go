package symtab

import (
	"debug/elf"

	"github.com/jschwinger233/insntrace/internal/procmaps"
	log "github.com/sirupsen/logrus"
)

// Segment is an executable PT_LOAD program header of an object.
type Segment struct {
	Off, Vaddr uint64
}

type ObjectInfo struct {
	Type     elf.Type
	Segments []Segment
}

type Loader interface {
	Load(path string) ([]Symbol, ObjectInfo, error)
}

type Builder struct {
	loader Loader
	policy Policy
}

func NewBuilder(loader Loader, policy Policy) *Builder {
	if policy == nil {
		policy = FirstRegion{}
	}
	return &Builder{loader: loader, policy: policy}
}

// Build registers one table per region whose object could be loaded.
// Objects that cannot be opened or carry no symbols are skipped.
func (b *Builder) Build(regions []procmaps.Region) *Registry {
	registry := NewRegistry()
	for idx, region := range regions {
		log.Debugf("region %x-%x %s %s", region.Start, region.End, region.Perms, region.Path)
		if region.Path == "" {
			continue
		}
		symbols, info, err := b.loader.Load(region.Path)
		if err != nil {
			log.Debugf("no symbols for %s: %v", region.Path, err)
			continue
		}
		baseOffset := b.policy.BaseOffset(idx, region, info)
		table := NewTable(region.Path, symbols, region.Start, baseOffset)
		log.Debugf("loaded %d symbols from %s base=%x offset=%x", len(table.Symbols), region.Path, table.BaseAddress, table.BaseOffset)
		registry.Add(table)
	}
	return registry
}
