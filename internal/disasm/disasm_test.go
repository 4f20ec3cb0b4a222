package disasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, arch := range Arches {
		dec, err := New(arch, SyntaxDefault)
		require.NoError(t, err, arch)
		assert.Equal(t, arch, dec.Arch())
	}

	_, err := New("mips", SyntaxDefault)
	assert.ErrorIs(t, err, ErrUnsupportedArch)

	_, err = New(PPC64, SyntaxIntel)
	assert.ErrorIs(t, err, ErrUnsupportedSyntax)

	_, err = New(AMD64, "att")
	assert.ErrorIs(t, err, ErrUnsupportedSyntax)
}

func TestParseArch(t *testing.T) {
	tests := map[string]Arch{
		"x86_64":  AMD64,
		"amd64":   AMD64,
		"aarch64": ARM64,
		"ppc64le": PPC64LE,
		"PPC64":   PPC64,
	}
	for in, want := range tests {
		got, err := ParseArch(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseArch("sparc")
	assert.Error(t, err)
}

func TestDisassembleX86(t *testing.T) {
	dec, err := New(AMD64, SyntaxGNU)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Disassemble(&buf, dec, 0x1000, []byte{0x90, 0x90}, 0, nil))
	assert.Equal(t, "nop; nop", buf.String())

	buf.Reset()
	require.NoError(t, Disassemble(&buf, dec, 0x1000, []byte{0x90, 0x90}, 1, nil))
	assert.Equal(t, "nop", buf.String())

	buf.Reset()
	require.NoError(t, Disassemble(&buf, dec, 0x400000, []byte{0x1f, 0x20, 0x03, 0xd5, 0x1f, 0x20, 0x03, 0xd5}, 0, nil))
	assert.Equal(t, "nop; nop", buf.String())
}

func TestDisassembleLabelsBranchTarget(t *testing.T) {
	dec, err := New(AMD64, SyntaxGNU)
	require.NoError(t, err)

	// call rel32 at 0x1000 targeting 0x1000+5+0x100
	code := []byte{0xe8, 0x00, 0x01, 0x00, 0x00}
	asked := []uint64{}
	label := func(addr uint64) (string, uint64) {
		asked = append(asked, addr)
		if addr == 0x1105 {
			return "target", 0x1105
		}
		return "", 0
	}

	var buf bytes.Buffer
	require.NoError(t, Disassemble(&buf, dec, 0x1000, code, 0, label))
	assert.Contains(t, asked, uint64(0x1105))
	assert.Contains(t, buf.String(), "target")
}

func TestDisassembleFallback(t *testing.T) {
	dec, err := New(AMD64, SyntaxGNU)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Disassemble(&buf, dec, 0x1000, []byte{0xe8}, 0, nil))
	assert.Equal(t, ".byte 0xe8", buf.String())

	buf.Reset()
	require.NoError(t, Disassemble(&buf, dec, 0x1000, []byte{0xe8, 0x01}, 0, nil))
	assert.Equal(t, ".byte 0xe8; .byte 0x01", buf.String())

	// operand size prefix with nothing after it
	_, _, err = dec.Decode(0x1000, []byte{0x66}, nil)
	assert.Error(t, err)

	ppc, err := New(PPC64, SyntaxGo)
	require.NoError(t, err)
	text, n := ppc.Raw([]byte{0x7c, 0x08, 0x02, 0xa6})
	assert.Equal(t, ".long 0x7c0802a6", text)
	assert.Equal(t, 4, n)

	ppcle, err := New(PPC64LE, SyntaxGo)
	require.NoError(t, err)
	text, _ = ppcle.Raw([]byte{0xa6, 0x02, 0x08, 0x7c})
	assert.Equal(t, ".long 0x7c0802a6", text)

	text, n = ppc.Raw([]byte{0x7c})
	assert.Equal(t, ".byte 0x7c", text)
	assert.Equal(t, 1, n)
}

func TestDisassemblePPC64ByteOrder(t *testing.T) {
	// mflr r0 in both byte orders decodes to the same instruction
	be, err := New(PPC64, SyntaxGNU)
	require.NoError(t, err)
	le, err := New(PPC64LE, SyntaxGNU)
	require.NoError(t, err)

	var bbuf, lbuf bytes.Buffer
	require.NoError(t, Disassemble(&bbuf, be, 0x10000450, []byte{0x7c, 0x08, 0x02, 0xa6}, 0, nil))
	require.NoError(t, Disassemble(&lbuf, le, 0x10000450, []byte{0xa6, 0x02, 0x08, 0x7c}, 0, nil))
	assert.NotEmpty(t, bbuf.String())
	assert.NotContains(t, bbuf.String(), ".long")
	assert.Equal(t, bbuf.String(), lbuf.String())
}

func TestDisassembleARM64(t *testing.T) {
	dec, err := New(ARM64, SyntaxGNU)
	require.NoError(t, err)

	// nop
	var buf bytes.Buffer
	require.NoError(t, Disassemble(&buf, dec, 0x400000, []byte{0x1f, 0x20, 0x03, 0xd5}, 0, nil))
	assert.Equal(t, "nop", buf.String())

	buf.Reset()
	require.NoError(t, Disassemble(&buf, dec, 0x400000, []byte{0x1f, 0x20, 0x03, 0xd5, 0x1f, 0x20, 0x03, 0xd5}, 0, nil))
	assert.Equal(t, "nop; nop", buf.String())
}

func TestCodeReader(t *testing.T) {
	r := &codeReader{pc: 0x100, code: []byte{1, 2, 3, 4}}
	p := make([]byte, 2)
	n, err := r.ReadAt(p, 0x102)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{3, 4}, p)

	_, err = r.ReadAt(p, 0x50)
	assert.Error(t, err)
	_, err = r.ReadAt(p, 0x104)
	assert.Error(t, err)
}
