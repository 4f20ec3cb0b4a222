package disasm

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/arch/arm64/arm64asm"
)

type arm64Decoder struct {
	syntax Syntax
}

func (d *arm64Decoder) Arch() Arch {
	return ARM64
}

func (d *arm64Decoder) Decode(pc uint64, code []byte, label LabelFunc) (text string, n int, err error) {
	inst, err := arm64asm.Decode(code)
	if err != nil {
		return
	}
	switch d.syntax {
	case SyntaxGNU:
		text = arm64asm.GNUSyntax(inst)
	default:
		text = arm64asm.GoSyntax(inst, pc, label, &codeReader{pc: pc, code: code})
	}
	return text, 4, nil
}

func (d *arm64Decoder) Raw(code []byte) (string, int) {
	if len(code) < 4 {
		return rawBytes(code)
	}
	return fmt.Sprintf(".long 0x%08x", binary.LittleEndian.Uint32(code)), 4
}

// codeReader exposes the traced bytes at their runtime addresses for
// pc-relative literal loads. Anything outside the record reads as EOF.
type codeReader struct {
	pc   uint64
	code []byte
}

func (r *codeReader) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || uint64(off) < r.pc || uint64(off)-r.pc >= uint64(len(r.code)) {
		return 0, io.EOF
	}
	n = copy(p, r.code[uint64(off)-r.pc:])
	if n < len(p) {
		err = io.EOF
	}
	return
}
