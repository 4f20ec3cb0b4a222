package session

import (
	"fmt"
	"io"
	"sync"

	myelf "github.com/jschwinger233/insntrace/elf"
	"github.com/jschwinger233/insntrace/internal/disasm"
	"github.com/jschwinger233/insntrace/internal/format"
	"github.com/jschwinger233/insntrace/internal/procmaps"
	"github.com/jschwinger233/insntrace/internal/source"
	"github.com/jschwinger233/insntrace/internal/symtab"
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	ProcRoot string
	Policy   string
	Arch     disasm.Arch
	Syntax   disasm.Syntax
	// Raw logs address and instruction bytes without symbolication.
	Raw bool
	// Lines appends the source location of resolved addresses.
	Lines bool

	Maps   procmaps.Reader
	Loader symtab.Loader
}

// Session annotates the instruction stream of one traced process. Symbol
// tables are built once, on Init or on the first record, and never change
// afterwards.
type Session struct {
	pid  int
	out  io.Writer
	opts Options

	decoder disasm.Decoder

	once     sync.Once
	initErr  error
	registry *symtab.Registry

	lines map[string]*myelf.ELF
}

func New(pid int, out io.Writer, opts Options) (_ *Session, err error) {
	if _, err = symtab.ParsePolicy(opts.Policy, ""); err != nil {
		return
	}
	if opts.ProcRoot == "" {
		opts.ProcRoot = procmaps.DefaultProcRoot
	}
	if opts.Arch == "" {
		if opts.Arch, err = disasm.HostArch(); err != nil {
			return
		}
	}
	decoder, err := disasm.New(opts.Arch, opts.Syntax)
	if err != nil {
		return
	}
	if opts.Maps == nil {
		opts.Maps = procmaps.NewProcReader(opts.ProcRoot, pid)
	}
	if opts.Loader == nil {
		opts.Loader = symtab.ELFLoader{}
	}
	return &Session{
		pid:     pid,
		out:     out,
		opts:    opts,
		decoder: decoder,
		lines:   map[string]*myelf.ELF{},
	}, nil
}

func (s *Session) Pid() int {
	return s.pid
}

func (s *Session) Decoder() disasm.Decoder {
	return s.decoder
}

// Init reads the memory map and builds the symbol tables. It runs once;
// later calls return the first outcome.
func (s *Session) Init() error {
	s.once.Do(func() {
		s.initErr = s.init()
	})
	return s.initErr
}

func (s *Session) init() (err error) {
	regions, err := s.opts.Maps.ReadRegions()
	if err != nil {
		return errors.WithMessagef(err, "pid %d", s.pid)
	}

	exe := ""
	if s.opts.Policy == symtab.PolicyExe {
		if exe, err = executable(s.opts.ProcRoot, s.pid); err != nil {
			return
		}
	}
	policy, err := symtab.ParsePolicy(s.opts.Policy, exe)
	if err != nil {
		return
	}

	s.registry = symtab.NewBuilder(s.opts.Loader, policy).Build(regions)
	log.Infof("pid %d: %d executable regions, %d symbol tables", s.pid, len(regions), s.registry.Len())
	return
}

func executable(procRoot string, pid int) (_ string, err error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		err = errors.Wrap(err, "procfs")
		return
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		err = errors.Wrapf(err, "proc %d", pid)
		return
	}
	return proc.Executable()
}

func (s *Session) Tables() []*symtab.Table {
	if s.Init() != nil {
		return nil
	}
	return s.registry.Tables()
}

func (s *Session) Resolve(addr uint64) (res symtab.Resolution, ok bool) {
	if s.Init() != nil {
		return
	}
	return s.registry.Resolve(addr)
}

// Label is handed to the decoder to name branch targets and other addresses
// it meets. It only reads the registry.
func (s *Session) Label(addr uint64) (name string, base uint64) {
	res, ok := s.Resolve(addr)
	if !ok {
		return "", 0
	}
	return res.Name, addr - res.Offset
}

// AddRecord writes one trace line for rec.
func (s *Session) AddRecord(rec source.Record) (err error) {
	if s.opts.Raw {
		return format.Raw(s.out, rec.Addr, rec.Code)
	}
	if err = s.Init(); err != nil {
		return
	}

	res, ok := s.registry.Resolve(rec.Addr)
	if err = format.Fprint(s.out, rec.Addr, res, ok); err != nil {
		return
	}
	if err = disasm.Disassemble(s.out, s.decoder, rec.Addr, rec.Code, rec.Count, s.Label); err != nil {
		return
	}
	if s.opts.Lines && ok {
		if filename, line, found := s.lineInfo(rec.Addr, res); found {
			if _, err = fmt.Fprintf(s.out, " ; %s:%d", filename, line); err != nil {
				return
			}
		}
	}
	_, err = io.WriteString(s.out, "\n")
	return
}

func (s *Session) lineInfo(addr uint64, res symtab.Resolution) (filename string, line int, found bool) {
	elfFile, ok := s.lines[res.Path]
	if !ok {
		var err error
		if elfFile, err = myelf.New(res.Path); err != nil {
			log.Debugf("no line info for %s: %v", res.Path, err)
		}
		s.lines[res.Path] = elfFile
	}
	if elfFile == nil {
		return
	}
	filename, line, err := elfFile.LineInfoForPc(addr - res.BaseOffset)
	if err != nil {
		return
	}
	return filename, line, true
}

func (s *Session) Close() (err error) {
	for path, elfFile := range s.lines {
		if elfFile == nil {
			continue
		}
		if cerr := elfFile.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, path)
		}
	}
	s.lines = map[string]*myelf.ELF{}
	return
}
