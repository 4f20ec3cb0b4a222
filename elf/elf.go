package elf

import (
	"debug/elf"

	"github.com/pkg/errors"
)

// ELF is a lazily decoded view over one object file. Decoded pieces
// (symbols, DWARF, line table) are cached after first use.
type ELF struct {
	path    string
	elfFile *elf.File

	cache map[string]interface{}
}

func New(path string) (_ *ELF, err error) {
	elfFile, err := elf.Open(path)
	if err != nil {
		err = errors.Wrapf(err, "open elf %s", path)
		return
	}
	return &ELF{
		path:    path,
		elfFile: elfFile,
		cache:   map[string]interface{}{},
	}, nil
}

func (e *ELF) Close() error {
	return e.elfFile.Close()
}
