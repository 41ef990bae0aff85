package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/tuannm99/novapool/internal"
	"github.com/tuannm99/novapool/internal/bufferpool"
	"github.com/tuannm99/novapool/internal/storage"
)

const usage = `usage: novapool [flags] <command>

commands:
  alloc <n>            allocate a run of n pages, print the first id
  write <pid> <text>   store text in page pid
  read <pid>           print the text stored in page pid
  dump <pid>           hex dump the used bytes of page pid
  free <pid>           drop page pid from the buffer pool
  stats                print pool and store counters

flags:
`

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("novapool", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.String("config", "", "path to a yaml config file")
	flags.String("workdir", "./data", "directory holding the page files")
	flags.Int("frames", 128, "number of buffer pool frames")
	flags.String("policy", bufferpool.PolicyClock, "replacement policy: clock or lru")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	return flags
}

func run(args []string, stdout, stderr io.Writer, fs afero.Fs) (err error) {
	flags := newFlagSet(stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("missing command")
	}

	cfgPath, _ := flags.GetString("config")
	cfg, err := internal.LoadConfig(cfgPath, flags)
	if err != nil {
		return err
	}
	lvl, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))

	var storeOpts []storage.StoreOption
	if cfg.Storage.PagesPerSegment > 0 {
		storeOpts = append(storeOpts, storage.WithPagesPerSegment(cfg.Storage.PagesPerSegment))
	}
	store, err := storage.NewFileStore(fs, cfg.Storage.Workdir, cfg.Storage.Base, storeOpts...)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	policy, err := bufferpool.NewPolicy(cfg.BufferPool.Policy, cfg.BufferPool.Frames)
	if err != nil {
		return err
	}
	pool := bufferpool.NewPool(store, cfg.BufferPool.Frames,
		bufferpool.WithLogger(logger),
		bufferpool.WithPolicy(policy),
		bufferpool.WithReferenceOnHit(cfg.BufferPool.ReferenceOnHit),
	)
	logger.Debug("novapool: opened",
		"workdir", cfg.Storage.Workdir,
		"pages", store.NumPages(),
		"frames", pool.FrameCount(),
		"policy", cfg.BufferPool.Policy,
	)

	cmdErr := dispatch(pool, store, flags.Args(), stdout)
	return multierr.Append(cmdErr, pool.FlushAll())
}

func dispatch(pool *bufferpool.Pool, store *storage.FileStore, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "alloc":
		if len(rest) != 1 {
			return fmt.Errorf("alloc: want <n>")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("alloc: %w", err)
		}
		id, _, err := pool.AllocatePages(n, nil)
		if err != nil {
			return err
		}
		if err := pool.Unpin(id, false); err != nil {
			return err
		}
		fmt.Fprintln(out, id)
		return nil

	case "write":
		if len(rest) != 2 {
			return fmt.Errorf("write: want <pid> <text>")
		}
		id, err := parsePageID(rest[0])
		if err != nil {
			return err
		}
		pg, err := pool.Pin(id, bufferpool.DiskRead, nil)
		if err != nil {
			return err
		}
		werr := putRecord(pg, []byte(rest[1]))
		return multierr.Append(werr, pool.Unpin(id, werr == nil))

	case "read":
		if len(rest) != 1 {
			return fmt.Errorf("read: want <pid>")
		}
		id, err := parsePageID(rest[0])
		if err != nil {
			return err
		}
		pg, err := pool.Pin(id, bufferpool.DiskRead, nil)
		if err != nil {
			return err
		}
		data, rerr := getRecord(pg)
		if rerr == nil {
			fmt.Fprintln(out, string(data))
		}
		return multierr.Append(rerr, pool.Unpin(id, false))

	case "dump":
		if len(rest) != 1 {
			return fmt.Errorf("dump: want <pid>")
		}
		id, err := parsePageID(rest[0])
		if err != nil {
			return err
		}
		pg, err := pool.Pin(id, bufferpool.DiskRead, nil)
		if err != nil {
			return err
		}
		derr := pg.Debug(out, id, 64)
		return multierr.Append(derr, pool.Unpin(id, false))

	case "free":
		if len(rest) != 1 {
			return fmt.Errorf("free: want <pid>")
		}
		id, err := parsePageID(rest[0])
		if err != nil {
			return err
		}
		return pool.DeallocatePage(id)

	case "stats":
		st := pool.Stats()
		fmt.Fprintf(out, "frames=%d unpinned=%d pages=%d\n", pool.FrameCount(), pool.UnpinnedCount(), store.NumPages())
		fmt.Fprintf(out, "hits=%d misses=%d evictions=%d reads=%d writes=%d\n",
			st.Hits, st.Misses, st.Evictions, st.Reads, st.Writes)
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parsePageID(s string) (storage.PageID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return storage.InvalidPageID, fmt.Errorf("bad page id %q: %w", s, err)
	}
	return storage.PageID(n), nil
}
