package format

import (
	"fmt"
	"io"

	"github.com/jschwinger233/insntrace/internal/symtab"
)

// Sprint renders an address for the trace log, always with a trailing space.
func Sprint(addr uint64, res symtab.Resolution, ok bool) string {
	if !ok {
		return fmt.Sprintf("%x ", addr)
	}
	return fmt.Sprintf("%x <%s+0x%x> ", addr, res.Name, res.Offset)
}

func Fprint(w io.Writer, addr uint64, res symtab.Resolution, ok bool) (err error) {
	_, err = io.WriteString(w, Sprint(addr, res, ok))
	return
}

// Raw is the record form used when symbolication is disabled.
func Raw(w io.Writer, addr uint64, code []byte) (err error) {
	_, err = fmt.Fprintf(w, "%#x\t0x%x\n", addr, code)
	return
}
