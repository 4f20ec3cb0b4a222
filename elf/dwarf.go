package elf

import (
	"debug/dwarf"
	"io"
	"sort"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func (e *ELF) DWARF() (_ *dwarf.Data, err error) {
	if v, ok := e.cache["dwarf"]; ok {
		return v.(*dwarf.Data), nil
	}

	info, err := godwarf.GetDebugSectionElf(e.elfFile, "info")
	if err != nil {
		err = errors.WithMessage(NoDebugInfoError, e.path)
		return
	}
	sections := map[string][]byte{}
	for _, name := range []string{"abbrev", "aranges", "frame", "line", "pubnames", "ranges", "str"} {
		if data, err := godwarf.GetDebugSectionElf(e.elfFile, name); err == nil {
			sections[name] = data
		}
	}
	dwarfData, err := dwarf.New(
		sections["abbrev"], sections["aranges"], sections["frame"], info,
		sections["line"], sections["pubnames"], sections["ranges"], sections["str"],
	)
	if err != nil {
		err = errors.Wrapf(err, "parse dwarf of %s", e.path)
		return
	}
	// DWARF 5 producers move strings, addresses and ranges to extra sections
	for _, name := range []string{"addr", "line_str", "str_offsets", "rnglists", "loclists"} {
		data, err := godwarf.GetDebugSectionElf(e.elfFile, name)
		if err != nil {
			continue
		}
		if err := dwarfData.AddSection(".debug_"+name, data); err != nil {
			log.Debugf("add section %s of %s: %v", name, e.path, err)
		}
	}
	e.cache["dwarf"] = dwarfData
	return dwarfData, nil
}

func (e *ELF) IterDebugInfo() <-chan *dwarf.Entry {
	ch := make(chan *dwarf.Entry)
	go func() {
		defer close(ch)
		dwarfData, err := e.DWARF()
		if err != nil {
			return
		}
		infoReader := dwarfData.Reader()
		for {
			entry, err := infoReader.Next()
			if err != nil || entry == nil {
				return
			}
			ch <- entry
		}
	}()
	return ch
}

func (e *ELF) LineEntries() (lineEntries []dwarf.LineEntry, err error) {
	if v, ok := e.cache["lineEntries"]; ok {
		return v.([]dwarf.LineEntry), nil
	}
	dwarfData, err := e.DWARF()
	if err != nil {
		return
	}
	for die := range e.IterDebugInfo() {
		if die.Tag != dwarf.TagCompileUnit {
			continue
		}
		lineReader, err := dwarfData.LineReader(die)
		if err != nil || lineReader == nil {
			continue
		}
		for {
			entry := dwarf.LineEntry{}
			if err := lineReader.Next(&entry); err != nil {
				if err != io.EOF {
					log.Debugf("line table of %s truncated: %+v", e.path, err)
				}
				break
			}
			if entry.EndSequence || entry.File == nil {
				continue
			}
			lineEntries = append(lineEntries, entry)
		}
	}
	sort.SliceStable(lineEntries, func(i, j int) bool { return lineEntries[i].Address < lineEntries[j].Address })
	e.cache["lineEntries"] = lineEntries
	return
}

// LineInfoForPc maps an object-relative pc to the closest preceding line row.
func (e *ELF) LineInfoForPc(pc uint64) (filename string, line int, err error) {
	lineEntries, err := e.LineEntries()
	if err != nil {
		return
	}
	idx := sort.Search(len(lineEntries), func(i int) bool { return lineEntries[i].Address > pc }) - 1
	if idx < 0 {
		err = errors.WithMessagef(LineNotFoundError, "%x", pc)
		return
	}
	return lineEntries[idx].File.Name, lineEntries[idx].Line, nil
}
