package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// LabelFunc names an address found while decoding. It returns the symbol
// containing addr and that symbol's start address, or "" when unknown.
type LabelFunc func(addr uint64) (name string, base uint64)

func noLabel(uint64) (string, uint64) { return "", 0 }

type Syntax string

const (
	SyntaxDefault Syntax = ""
	SyntaxGNU     Syntax = "gnu"
	SyntaxGo      Syntax = "go"
	SyntaxIntel   Syntax = "intel"
)

var ErrUnsupportedSyntax = errors.New("unsupported syntax")

type Decoder interface {
	Arch() Arch
	// Decode renders the first instruction of code located at pc and
	// reports how many bytes it occupies.
	Decode(pc uint64, code []byte, label LabelFunc) (text string, n int, err error)
	// Raw renders undecodable bytes, consuming at least one byte.
	Raw(code []byte) (text string, n int)
}

// New returns a decoder for arch; the byte order is fixed by the arch.
func New(arch Arch, syntax Syntax) (_ Decoder, err error) {
	switch arch {
	case PPC64, PPC64LE:
		if syntax == SyntaxDefault {
			syntax = SyntaxGo
		}
		if syntax != SyntaxGNU && syntax != SyntaxGo {
			break
		}
		return newPPC64(arch, syntax), nil
	case AMD64:
		if syntax == SyntaxDefault {
			syntax = SyntaxGNU
		}
		if syntax != SyntaxGNU && syntax != SyntaxGo && syntax != SyntaxIntel {
			break
		}
		return &x86Decoder{syntax: syntax}, nil
	case ARM64:
		if syntax == SyntaxDefault {
			syntax = SyntaxGo
		}
		if syntax != SyntaxGNU && syntax != SyntaxGo {
			break
		}
		return &arm64Decoder{syntax: syntax}, nil
	default:
		return nil, errors.WithMessage(ErrUnsupportedArch, string(arch))
	}
	return nil, errors.WithMessagef(ErrUnsupportedSyntax, "%s on %s", syntax, arch)
}

// Disassemble writes up to count instructions decoded from code, or all of
// them when count is 0. Instructions are separated by "; ".
func Disassemble(w io.Writer, dec Decoder, pc uint64, code []byte, count int, label LabelFunc) (err error) {
	if label == nil {
		label = noLabel
	}
	texts := []string{}
	for i := 0; i < len(code) && (count == 0 || len(texts) < count); {
		text, n, err := dec.Decode(pc+uint64(i), code[i:], label)
		if err != nil || n <= 0 {
			text, n = dec.Raw(code[i:])
		}
		texts = append(texts, strings.TrimSpace(text))
		i += n
	}
	_, err = io.WriteString(w, strings.Join(texts, "; "))
	return
}

func rawBytes(code []byte) (string, int) {
	return fmt.Sprintf(".byte 0x%02x", code[0]), 1
}
