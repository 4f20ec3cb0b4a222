package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/jschwinger233/insntrace/internal/disasm"
	"github.com/jschwinger233/insntrace/internal/procmaps"
	"github.com/jschwinger233/insntrace/internal/session"
	"github.com/jschwinger233/insntrace/internal/source"
	"github.com/jschwinger233/insntrace/internal/symtab"
	"github.com/jschwinger233/insntrace/version"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Print(version.String())
	}

	app := &cli.App{
		Name:    "insntrace",
		Usage:   "annotate instruction traces with symbol+offset",
		Version: version.VERSION,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "insntrace.log",
				Usage:   "trace log file, - for stdout",
				EnvVars: []string{"INSNTRACE_OUTPUT"},
			},
			&cli.StringFlag{
				Name:    "arch",
				Usage:   fmt.Sprintf("instruction set of the tracee %v, defaults to the host", disasm.Arches),
				EnvVars: []string{"INSNTRACE_ARCH"},
			},
			&cli.StringFlag{
				Name:    "syntax",
				Usage:   "assembly syntax: gnu, go or intel",
				EnvVars: []string{"INSNTRACE_SYNTAX"},
			},
			&cli.StringFlag{
				Name:    "offset-policy",
				Value:   symtab.PolicyFirst,
				Usage:   fmt.Sprintf("how symbol values are rebased %v", symtab.PolicyNames),
				EnvVars: []string{"INSNTRACE_OFFSET_POLICY"},
			},
			&cli.StringFlag{
				Name:    "proc-root",
				Value:   procmaps.DefaultProcRoot,
				Usage:   "procfs mount point",
				EnvVars: []string{"INSNTRACE_PROC_ROOT"},
			},
			&cli.BoolFlag{
				Name:    "raw",
				Usage:   "log address and instruction bytes only",
				EnvVars: []string{"INSNTRACE_RAW"},
			},
			&cli.BoolFlag{
				Name:    "lines",
				Usage:   "append file:line from DWARF",
				EnvVars: []string{"INSNTRACE_LINES"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				Usage:   "enable debug logging",
				EnvVars: []string{"INSNTRACE_DEBUG"},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "annotate a recorded trace of a live process",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "pid",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "process whose memory map is used",
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Value:   "-",
						Usage:   "recorded trace, one 'ADDR HEXBYTES' per line, - for stdin",
					},
				},
				Action: replay,
			},
			{
				Name:      "trace",
				Usage:     "single-step a process and annotate every instruction",
				ArgsUsage: "[-- cmd args...]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "pid",
						Aliases: []string{"p"},
						Usage:   "attach to a running process",
					},
					&cli.Uint64Flag{
						Name:    "max-insns",
						Aliases: []string{"n"},
						Value:   100000,
						Usage:   "stop after this many instructions, 0 for no limit",
						EnvVars: []string{"INSNTRACE_MAX_INSNS"},
					},
				},
				Action: trace,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func replay(c *cli.Context) (err error) {
	input := os.Stdin
	if path := c.String("input"); path != "-" {
		if input, err = os.Open(path); err != nil {
			log.Fatalf("Could not open trace %s: %v", path, err)
		}
		defer input.Close()
	}
	return run(c, source.NewReplay(c.Int("pid"), bufio.NewReader(input)))
}

func trace(c *cli.Context) (err error) {
	pid, command := c.Int("pid"), c.Args().Slice()
	if (pid == 0) == (len(command) == 0) {
		return cli.Exit("trace needs exactly one of --pid or a command", 1)
	}
	arch, err := archOf(c)
	if err != nil {
		return
	}
	codeLen := 4
	if arch == disasm.AMD64 {
		codeLen = 16
	}

	src, err := source.NewPtrace(source.PtraceOptions{
		Pid:      pid,
		Command:  command,
		MaxInsns: c.Uint64("max-insns"),
		CodeLen:  codeLen,
	})
	if err != nil {
		return
	}
	defer src.Close()
	return run(c, src)
}

func archOf(c *cli.Context) (disasm.Arch, error) {
	if name := c.String("arch"); name != "" {
		return disasm.ParseArch(name)
	}
	return disasm.HostArch()
}

func run(c *cli.Context, src source.Source) (err error) {
	arch, err := archOf(c)
	if err != nil {
		return
	}

	out := os.Stdout
	if path := c.String("output"); path != "-" {
		if out, err = os.Create(path); err != nil {
			log.Fatal("Could not open logfile")
		}
		defer out.Close()
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	sess, err := session.New(src.Pid(), w, session.Options{
		ProcRoot: c.String("proc-root"),
		Policy:   c.String("offset-policy"),
		Arch:     arch,
		Syntax:   disasm.Syntax(c.String("syntax")),
		Raw:      c.Bool("raw"),
		Lines:    c.Bool("lines"),
	})
	if err != nil {
		return
	}
	defer sess.Close()
	if !c.Bool("raw") {
		if err = sess.Init(); err != nil {
			log.Fatal(err)
		}
	}

	return NewTracer(src, sess).Start()
}
