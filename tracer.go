package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/jschwinger233/insntrace/internal/session"
	"github.com/jschwinger233/insntrace/internal/source"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Tracer struct {
	src     source.Source
	session *session.Session
}

func NewTracer(src source.Source, sess *session.Session) *Tracer {
	return &Tracer{
		src:     src,
		session: sess,
	}
}

func (t *Tracer) Start() (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err = t.Run(ctx); errors.Is(err, context.Canceled) {
		log.Info("interrupted\n")
		return nil
	}
	return
}

// Run logs every record of the source until it is drained or ctx is done.
func (t *Tracer) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log.Infof("start tracing pid %d\n", t.src.Pid())

	count := 0
	for record := range t.src.Records(ctx) {
		if err = t.session.AddRecord(record); err != nil {
			return errors.WithMessagef(err, "record %x", record.Addr)
		}
		count++
	}
	log.Infof("traced %d instructions\n", count)
	return t.src.Err()
}
