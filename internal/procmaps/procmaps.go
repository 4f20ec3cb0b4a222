package procmaps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultProcRoot = "/proc"

// Region is one executable mapping of the traced process.
type Region struct {
	Start, End uint64
	Offset     uint64
	Perms      string
	Path       string
}

func (r Region) Executable() bool {
	return len(r.Perms) >= 3 && r.Perms[2] == 'x'
}

type Reader interface {
	ReadRegions() ([]Region, error)
}

type ProcReader struct {
	procRoot string
	pid      int
}

func NewProcReader(procRoot string, pid int) *ProcReader {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	return &ProcReader{procRoot: procRoot, pid: pid}
}

func (p *ProcReader) Path() string {
	return filepath.Join(p.procRoot, strconv.Itoa(p.pid), "maps")
}

// ReadRegions fails only when the listing itself is unavailable; individual
// malformed lines are skipped.
func (p *ProcReader) ReadRegions() (regions []Region, err error) {
	f, err := os.Open(p.Path())
	if err != nil {
		err = errors.Wrap(err, "open memory map")
		return
	}
	defer f.Close()
	return Parse(f)
}

// Parse returns the executable regions of a maps listing in listing order.
func Parse(r io.Reader) (regions []Region, err error) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		region, err := parseLine(line)
		if err != nil {
			log.Debugf("skip map line %q: %v", line, err)
			continue
		}
		if !region.Executable() {
			continue
		}
		regions = append(regions, region)
	}
	if err = s.Err(); err != nil {
		err = errors.Wrap(err, "read memory map")
	}
	return
}

// Example format:
//
//	55d4b2000000-55d4b2021000 r-xp 00000000 08:01 131073 /usr/bin/myprog
func parseLine(line string) (Region, error) {
	parts := strings.Fields(line)
	if len(parts) < 5 {
		return Region{}, fmt.Errorf("not enough fields: %d", len(parts))
	}
	se := strings.SplitN(parts[0], "-", 2)
	if len(se) != 2 {
		return Region{}, fmt.Errorf("invalid address range %q", parts[0])
	}
	start, err := strconv.ParseUint(se[0], 16, 64)
	if err != nil {
		return Region{}, errors.Wrap(err, "start address")
	}
	end, err := strconv.ParseUint(se[1], 16, 64)
	if err != nil {
		return Region{}, errors.Wrap(err, "end address")
	}
	offset, err := strconv.ParseUint(parts[2], 16, 64)
	if err != nil {
		return Region{}, errors.Wrap(err, "offset")
	}
	if len(parts[1]) < 3 {
		return Region{}, fmt.Errorf("invalid permissions %q", parts[1])
	}
	// the pathname may itself contain spaces, e.g. "(deleted)" suffixes
	var path string
	if len(parts) >= 6 {
		path = strings.Join(parts[5:], " ")
	}
	return Region{Start: start, End: end, Offset: offset, Perms: parts[1], Path: path}, nil
}
