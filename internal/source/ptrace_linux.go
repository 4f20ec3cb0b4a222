//go:build linux
// +build linux

package source

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type PtraceOptions struct {
	// Pid attaches to a running process when Command is empty.
	Pid     int
	Command []string
	// MaxInsns stops stepping after this many instructions; 0 runs until
	// the tracee exits.
	MaxInsns uint64
	// CodeLen is the number of bytes read at every pc.
	CodeLen int
}

type stepRequest struct {
	ctx context.Context
	ch  chan<- Record
}

// Ptrace single-steps a tracee. Every ptrace request is issued from one
// goroutine locked to its OS thread, as the kernel requires.
type Ptrace struct {
	opts PtraceOptions
	pid  int
	err  error

	ready   chan error
	run     chan stepRequest
	once    sync.Once
	closing sync.Once
}

func NewPtrace(opts PtraceOptions) (_ *Ptrace, err error) {
	if opts.CodeLen <= 0 {
		opts.CodeLen = 4
	}
	p := &Ptrace{
		opts:  opts,
		ready: make(chan error, 1),
		run:   make(chan stepRequest, 1),
	}
	go p.loop()
	if err = <-p.ready; err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Ptrace) Pid() int {
	return p.pid
}

func (p *Ptrace) Err() error {
	return p.err
}

func (p *Ptrace) Records(ctx context.Context) <-chan Record {
	ch := make(chan Record)
	p.once.Do(func() {
		p.run <- stepRequest{ctx: ctx, ch: ch}
	})
	return ch
}

// Close detaches from a tracee whose records were never consumed.
func (p *Ptrace) Close() {
	p.closing.Do(func() { close(p.run) })
}

func (p *Ptrace) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := p.start(); err != nil {
		p.ready <- err
		return
	}
	p.ready <- nil

	req, ok := <-p.run
	if !ok {
		p.detach()
		return
	}
	defer close(req.ch)
	p.err = p.step(req.ctx, req.ch)
}

func (p *Ptrace) start() (err error) {
	if len(p.opts.Command) == 0 {
		p.pid = p.opts.Pid
		if err = unix.PtraceAttach(p.pid); err != nil {
			return errors.Wrapf(err, "attach %d", p.pid)
		}
		return p.wait()
	}

	cmd := exec.Command(p.opts.Command[0], p.opts.Command[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}
	if err = cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", p.opts.Command[0])
	}
	p.pid = cmd.Process.Pid
	// the tracee stops with SIGTRAP once exec completes
	return p.wait()
}

func (p *Ptrace) wait() (err error) {
	var status unix.WaitStatus
	if _, err = unix.Wait4(p.pid, &status, 0, nil); err != nil {
		return errors.Wrapf(err, "wait %d", p.pid)
	}
	if !status.Stopped() {
		return errors.Errorf("tracee %d not stopped: %v", p.pid, status)
	}
	return
}

func (p *Ptrace) detach() {
	if err := unix.PtraceDetach(p.pid); err != nil {
		log.Debugf("detach %d: %v", p.pid, err)
	}
}

func (p *Ptrace) step(ctx context.Context, ch chan<- Record) (err error) {
	var sig unix.Signal
	for n := uint64(0); p.opts.MaxInsns == 0 || n < p.opts.MaxInsns; n++ {
		var regs unix.PtraceRegs
		if err = unix.PtraceGetRegs(p.pid, &regs); err != nil {
			return errors.Wrap(err, "get registers")
		}
		pc := regs.PC()
		code := make([]byte, p.opts.CodeLen)
		var read int
		if read, err = unix.PtracePeekText(p.pid, uintptr(pc), code); err != nil && read == 0 {
			return errors.Wrapf(err, "peek %x", pc)
		}

		select {
		case ch <- Record{Addr: pc, Code: code[:read], Count: 1}:
		case <-ctx.Done():
			p.detach()
			return ctx.Err()
		}

		if err = singleStep(p.pid, sig); err != nil {
			return errors.Wrap(err, "single step")
		}
		var status unix.WaitStatus
		if _, err = unix.Wait4(p.pid, &status, 0, nil); err != nil {
			return errors.Wrapf(err, "wait %d", p.pid)
		}
		if status.Exited() || status.Signaled() {
			log.Debugf("tracee %d gone after %d instructions: %v", p.pid, n+1, status)
			return nil
		}
		if sig = pendingSignal(status); sig != 0 {
			log.Debugf("tracee %d stopped by %v, delivering it on the next step", p.pid, sig)
		}
	}
	p.detach()
	return
}

// pendingSignal returns the signal a stop has to hand back to the tracee.
// SIGTRAP belongs to the tracer.
func pendingSignal(status unix.WaitStatus) unix.Signal {
	if !status.Stopped() || status.StopSignal() == unix.SIGTRAP {
		return 0
	}
	return status.StopSignal()
}

// singleStep is PTRACE_SINGLESTEP injecting sig, which unix.PtraceSingleStep
// cannot do.
func singleStep(pid int, sig unix.Signal) error {
	if _, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SINGLESTEP, uintptr(pid), 0, uintptr(sig), 0, 0); errno != 0 {
		return errno
	}
	return nil
}
