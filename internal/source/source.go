package source

import "context"

// Record is one traced instruction. Count limits how many instructions are
// decoded from Code; 0 decodes the whole buffer.
type Record struct {
	Addr  uint64
	Code  []byte
	Count int
}

type Source interface {
	Pid() int
	// Records streams until the source is exhausted or ctx is done. Err
	// reports why the stream stopped once the channel is closed.
	Records(ctx context.Context) <-chan Record
	Err() error
}
