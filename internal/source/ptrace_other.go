//go:build !linux
// +build !linux

package source

import (
	"context"

	"github.com/pkg/errors"
)

type PtraceOptions struct {
	Pid      int
	Command  []string
	MaxInsns uint64
	CodeLen  int
}

type Ptrace struct{}

func NewPtrace(opts PtraceOptions) (*Ptrace, error) {
	return nil, errors.New("ptrace tracing is only supported on linux")
}

func (p *Ptrace) Pid() int {
	return 0
}

func (p *Ptrace) Err() error {
	return nil
}

func (p *Ptrace) Records(ctx context.Context) <-chan Record {
	ch := make(chan Record)
	close(ch)
	return ch
}

func (p *Ptrace) Close() {}
