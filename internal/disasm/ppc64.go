package disasm

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/ppc64/ppc64asm"
)

type ppc64Decoder struct {
	arch   Arch
	order  binary.ByteOrder
	syntax Syntax
}

func newPPC64(arch Arch, syntax Syntax) *ppc64Decoder {
	var order binary.ByteOrder = binary.BigEndian
	if arch == PPC64LE {
		order = binary.LittleEndian
	}
	return &ppc64Decoder{arch: arch, order: order, syntax: syntax}
}

func (d *ppc64Decoder) Arch() Arch {
	return d.arch
}

func (d *ppc64Decoder) Decode(pc uint64, code []byte, label LabelFunc) (text string, n int, err error) {
	inst, err := ppc64asm.Decode(code, d.order)
	if err != nil {
		return
	}
	switch d.syntax {
	case SyntaxGNU:
		text = ppc64asm.GNUSyntax(inst, pc)
	default:
		text = ppc64asm.GoSyntax(inst, pc, label)
	}
	return text, inst.Len, nil
}

func (d *ppc64Decoder) Raw(code []byte) (string, int) {
	if len(code) < 4 {
		return rawBytes(code)
	}
	return fmt.Sprintf(".long 0x%08x", d.order.Uint32(code)), 4
}
