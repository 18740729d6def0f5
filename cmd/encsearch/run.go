package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ai8future/encsearch"
	"github.com/ai8future/encsearch/config"
)

const usage = `usage: encsearch [-config path] <keygen|seed|add|search|lookup> [flags] [args]`

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("encsearch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "keygen" {
		if err := keygen(rest, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "keygen: %v\n", err)
			return 1
		}
		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 1
	}
	logger, err := cfg.Logging.Build()
	if err != nil {
		fmt.Fprintf(stderr, "failed to build logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	a := &app{cfg: cfg, logger: logger, out: stdout}
	switch cmd {
	case "seed":
		err = a.seed(ctx, rest, stderr)
	case "add":
		err = a.add(ctx, rest, stderr)
	case "search":
		err = a.search(ctx, rest, func(e *encsearch.Engine, q string) ([]encsearch.Record, error) {
			return e.SearchByKeyword(ctx, q)
		})
	case "lookup":
		err = a.search(ctx, rest, func(e *encsearch.Engine, q string) ([]encsearch.Record, error) {
			return e.SearchByEqualityField(ctx, q)
		})
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s\n", cmd, usage)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 2
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		return 1
	}
	return 0
}

// withEngine opens the configured storage and key material, runs fn, and releases both.
func (a *app) withEngine(ctx context.Context, fn func(*encsearch.Engine, encsearch.Storage) error) error {
	store, closeStore, err := openStorage(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			a.logger.Warn("closing storage", zap.Error(err))
		}
	}()

	ks, err := a.cfg.Keys.KeyStore()
	if err != nil {
		return err
	}
	defer ks.Close()

	engine, err := encsearch.New(ks, store, a.cfg.Options(a.logger, nil)...)
	if err != nil {
		return err
	}
	defer engine.Close()
	return fn(engine, store)
}

func keygen(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "keys.json", "key file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	keys, err := config.GenerateKeys()
	if err != nil {
		return err
	}
	if err := config.WriteKeyFile(*out, keys); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}

func (a *app) seed(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	reset := fs.Bool("reset", false, "drop existing data first (sqlite and postgres only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.withEngine(ctx, func(engine *encsearch.Engine, store encsearch.Storage) error {
		if *reset {
			if err := resetStorage(ctx, store); err != nil {
				return err
			}
		}
		for _, product := range encsearch.SampleProducts() {
			id, err := engine.AddRecord(ctx, product)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added %d\n", id)
		}
		return nil
	})
}

func (a *app) add(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "product name")
	description := fs.String("description", "", "product description")
	category := fs.String("category", "", "product category")
	price := fs.String("price", "", "product price")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fields := encsearch.Fields{}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for field, value := range map[string]string{
		encsearch.FieldName:        *name,
		encsearch.FieldDescription: *description,
		encsearch.FieldCategory:    *category,
	} {
		if set[field] {
			fields[field] = value
		}
	}
	if set[encsearch.FieldPrice] {
		fields[encsearch.FieldPrice] = json.Number(*price)
	}

	return a.withEngine(ctx, func(engine *encsearch.Engine, _ encsearch.Storage) error {
		id, err := engine.AddRecord(ctx, fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "added %d\n", id)
		return nil
	})
}

func (a *app) search(ctx context.Context, args []string, query func(*encsearch.Engine, string) ([]encsearch.Record, error)) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one query argument, got %d", len(args))
	}
	return a.withEngine(ctx, func(engine *encsearch.Engine, _ encsearch.Storage) error {
		records, err := query(engine, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(a.out)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	})
}
