package symtab

import (
	myelf "github.com/jschwinger233/insntrace/elf"
)

// ELFLoader reads symbols from object files on disk.
type ELFLoader struct{}

func (ELFLoader) Load(path string) (symbols []Symbol, info ObjectInfo, err error) {
	elfFile, err := myelf.New(path)
	if err != nil {
		return
	}
	defer elfFile.Close()

	elfSymbols, err := elfFile.Symbols()
	if err != nil {
		return
	}
	symbols = make([]Symbol, 0, len(elfSymbols))
	for _, sym := range elfSymbols {
		symbols = append(symbols, Symbol{Name: sym.Name, Value: sym.Value})
	}

	info.Type = elfFile.Type()
	for _, prog := range elfFile.ExecSegments() {
		info.Segments = append(info.Segments, Segment{Off: prog.Off, Vaddr: prog.Vaddr})
	}
	return
}
