package disasm

import (
	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"
)

var errTruncated = errors.New("truncated instruction")

type x86Decoder struct {
	syntax Syntax
}

func (d *x86Decoder) Arch() Arch {
	return AMD64
}

func (d *x86Decoder) Decode(pc uint64, code []byte, label LabelFunc) (text string, n int, err error) {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return
	}
	// a lone prefix or cut off opcode decodes as a 1-byte Prefix pseudo-op
	if inst.Op == 0 {
		err = errTruncated
		return
	}
	symname := x86asm.SymLookup(label)
	switch d.syntax {
	case SyntaxIntel:
		text = x86asm.IntelSyntax(inst, pc, symname)
	case SyntaxGo:
		text = x86asm.GoSyntax(inst, pc, symname)
	default:
		text = x86asm.GNUSyntax(inst, pc, symname)
	}
	return text, inst.Len, nil
}

func (d *x86Decoder) Raw(code []byte) (string, int) {
	return rawBytes(code)
}
