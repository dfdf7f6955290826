package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit"
	"git.unix.lgbt/diamondburned/sockinit/sockinit/journal"
	"github.com/pkg/errors"
)

// services is the compiled-in service table. Parsing a config file would
// slot in here with the same Register contract.
var services = map[string]string{
	"serviceA": "service_a_socket",
	"serviceB": "service_b_socket",
	"serviceC": "service_c_socket",
}

var (
	journalFile string
	binDir      = "bin"
	socketDir   = "."
)

func init() {
	configDir, err := os.UserConfigDir()
	if err == nil {
		journalFile = filepath.Join(configDir, "sockinit", "journal.json")
	}

	flag.StringVar(&journalFile, "j", journalFile, "journal file path")
	flag.StringVar(&binDir, "b", binDir, "service binary directory path")
	flag.StringVar(&socketDir, "d", socketDir, "socket directory path")
	flag.Usage = func() {
		f := func(f string, v ...interface{}) {
			fmt.Fprintf(flag.CommandLine.Output(), f, v...)
		}

		f("Usage:\n")
		f("  %s -j <journal> -b <bindir> -d <socketdir>\n", filepath.Base(os.Args[0]))
		f("\n")
		f("Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if journalFile == "" {
		log.Fatalln("missing -j path to journal file")
	}

	// Ensure that, if the binary directory exists, that it is an actual
	// directory.
	if stat, err := os.Stat(binDir); err == nil && !stat.IsDir() {
		log.Fatalln("binary path", binDir, "is not a directory")
	}
}

func main() {
	if err := start(); err != nil {
		log.Fatalln(err)
	}
}

func start() error {
	// Wait briefly for a previous instance to release the journal, so a
	// restart does not race the old process' teardown.
	lockCtx, cancelLock := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancelLock()

	j, err := journal.NewFileLockJournalerWait(lockCtx, journalFile)
	if err != nil {
		if errors.Is(err, journal.ErrLockedElsewhere) || errors.Is(err, context.DeadlineExceeded) {
			// Non-fatal error.
			log.Println("sockinit is already running")
			return nil
		}

		return errors.Wrap(err, "failed to acquire journal lock")
	}
	defer j.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	journaler := journal.MultiWriter(j, journal.NewHumanWriter("stderr", os.Stderr))

	reg := sockinit.NewRegistry()
	for name, socket := range services {
		if err := reg.Register(name, filepath.Join(socketDir, socket)); err != nil {
			return errors.Wrapf(err, "failed to register %q", name)
		}
	}

	table := sockinit.NewProcTable()

	activator := sockinit.NewActivator(reg, sockinit.NewSpawner(binDir), table, journaler)
	if err := activator.WatchAll(); err != nil {
		return errors.Wrap(err, "failed to arm watchers")
	}

	sockinit.TryWatch(ctx, binDir, journaler)

	log.Println("sockinit done creating socket listeners")

	// Reap concurrently with the armed watchers; activation is
	// demand-driven and may happen at any time.
	if err := sockinit.NewReaper(table, journaler).Run(ctx); !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "reap loop failed")
	}

	return nil
}
