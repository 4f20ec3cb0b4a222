package elf

import (
	"debug/elf"
	"sort"

	"github.com/pkg/errors"
)

// Symbols returns the defined, named code and data symbols of the object sorted by value.
// The static table is preferred; the dynamic table is consulted only when
// the static one is absent or empty (stripped objects).
func (e *ELF) Symbols() (symbols []elf.Symbol, err error) {
	if v, ok := e.cache["symbols"]; ok {
		return v.([]elf.Symbol), nil
	}

	if symbols, err = e.readSymbols(e.elfFile.Symbols); err != nil {
		return
	}
	if len(symbols) == 0 {
		if symbols, err = e.readSymbols(e.elfFile.DynamicSymbols); err != nil {
			return
		}
	}
	if len(symbols) == 0 {
		err = errors.WithMessage(NoSymbolsError, e.path)
		return
	}

	sort.SliceStable(symbols, func(i, j int) bool { return symbols[i].Value < symbols[j].Value })
	e.cache["symbols"] = symbols
	return
}

func (e *ELF) readSymbols(read func() ([]elf.Symbol, error)) (symbols []elf.Symbol, err error) {
	all, err := read()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return nil, nil
		}
		return nil, errors.Wrap(err, e.path)
	}
	for _, sym := range all {
		if keepSymbol(sym) {
			symbols = append(symbols, sym)
		}
	}
	return
}

// keepSymbol drops what nm hides: unnamed and undefined entries, and the
// file and section markers sitting at value 0.
func keepSymbol(sym elf.Symbol) bool {
	if sym.Name == "" || sym.Section == elf.SHN_UNDEF {
		return false
	}
	switch elf.ST_TYPE(sym.Info) {
	case elf.STT_FILE, elf.STT_SECTION:
		return false
	}
	return true
}
