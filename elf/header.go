package elf

import "debug/elf"

func (e *ELF) Type() elf.Type {
	return e.elfFile.Type
}

// ExecSegments returns the loadable segments mapped with execute permission.
func (e *ELF) ExecSegments() (progs []*elf.Prog) {
	for _, prog := range e.elfFile.Progs {
		if prog.Type == elf.PT_LOAD && prog.Flags&elf.PF_X != 0 {
			progs = append(progs, prog)
		}
	}
	return
}
