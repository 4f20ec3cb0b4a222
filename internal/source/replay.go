package source

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Replay reads recorded instructions, one "ADDR HEXBYTES" pair per line.
// Blank lines and lines starting with '#' are ignored.
type Replay struct {
	pid int
	r   io.Reader
	err error
}

func NewReplay(pid int, r io.Reader) *Replay {
	return &Replay{pid: pid, r: r}
}

func (s *Replay) Pid() int {
	return s.pid
}

func (s *Replay) Err() error {
	return s.err
}

func (s *Replay) Records(ctx context.Context) <-chan Record {
	ch := make(chan Record)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(s.r)
		for lineno := 1; scanner.Scan(); lineno++ {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			record, err := ParseRecord(line)
			if err != nil {
				s.err = errors.WithMessagef(err, "line %d", lineno)
				return
			}
			select {
			case ch <- record:
			case <-ctx.Done():
				s.err = ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.err = errors.Wrap(err, "read records")
		}
	}()
	return ch
}

func ParseRecord(line string) (record Record, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		err = fmt.Errorf("want 2 fields, got %d", len(fields))
		return
	}
	if record.Addr, err = strconv.ParseUint(trimHex(fields[0]), 16, 64); err != nil {
		err = errors.Wrap(err, "address")
		return
	}
	code := trimHex(fields[1])
	if len(code)%2 == 1 {
		code = "0" + code
	}
	if record.Code, err = hex.DecodeString(code); err != nil {
		err = errors.Wrap(err, "instruction")
		return
	}
	if len(record.Code) == 0 {
		err = errors.New("empty instruction")
	}
	return
}

func trimHex(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
}
