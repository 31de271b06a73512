package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"coltrane/internal/forcing"
	"coltrane/internal/stats"
	"coltrane/pkg/coltrane"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("coltranectl: ")
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "sweep":
		return runSweep(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "forcing":
		return runForcing(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: coltranectl <run|sweep|show|list|forcing> [flags]", msg)
}

func storeFlags(fs *flag.FlagSet) (*string, *string) {
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db", "coltrane.db", "sqlite database path")
	return storeKind, dbPath
}

func newClient(ctx context.Context, storeKind, dbPath string) (*coltrane.Client, error) {
	client, err := coltrane.New(coltrane.Options{StoreKind: storeKind, DBPath: dbPath})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "case config (yaml)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("run requires -config")
	}

	req, err := loadCaseRequest(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	req.Logf = log.Printf
	req.Progress = func(done, total int) {
		if done == total || done%100 == 0 {
			log.Printf("evaluated %d/%d strategies", done, total)
		}
	}

	summary, err := client.RunCase(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("case %s: strategies=%d cohorts=%d viable=%d/%d\n",
		summary.Key, summary.Strategies, summary.Cohorts,
		summary.ViableStrategies, summary.ViableCohorts)
	printScalars(summary.Scalars)
	return nil
}

func runSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	configPath := fs.String("config", "", "sweep config (yaml)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("sweep requires -config")
	}

	req, err := loadSweepRequest(*configPath)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	req.Logf = log.Printf
	req.Progress = func(done, total int) {
		log.Printf("completed case %d/%d", done, total)
	}

	summary, err := client.RunSweep(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("sweep %s: cases=%d shape=%v squeezed=%v failures=%d\n",
		summary.Key, summary.Cases, summary.Shape, summary.SqueezedShape, len(summary.Failures))
	for _, fail := range summary.Failures {
		fmt.Printf("  failed case %d overrides=%v: %s\n", fail.Index, fail.Overrides, fail.Error)
	}
	names := make([]string, 0, len(summary.Fields))
	for name := range summary.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := stats.Describe(summary.Fields[name])
		fmt.Printf("  %s: n=%d mean=%.4g min=%.4g max=%.4g median=%.4g\n",
			name, d.Count, d.Mean, d.Min, d.Max, d.Median)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	key := fs.String("key", "", "case or sweep key")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *key == "" {
		return usageError("show requires -key")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if rec, ok, err := client.Case(ctx, *key); err != nil {
		return err
	} else if ok {
		fmt.Printf("case %s: save_mode=%s cohorts=%d strategies=%d\n",
			rec.Key, rec.SaveMode, len(rec.T0), len(rec.Dtegg))
		printScalars(rec.Scalars)
		return nil
	}

	if rec, ok, err := client.Sweep(ctx, *key); err != nil {
		return err
	} else if ok {
		fmt.Printf("sweep %s: axes=%v shape=%v squeezed=%v failures=%d\n",
			rec.Key, rec.AxisNames, rec.Shape, rec.SqueezedShape, len(rec.Failures))
		return nil
	}
	return fmt.Errorf("no stored case or sweep under key %s", *key)
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	keys, err := client.CaseKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func runForcing(args []string) error {
	fs := flag.NewFlagSet("forcing", flag.ContinueOnError)
	years := fs.Int("years", 3, "series length in years")
	step := fs.Float64("step", 1, "timestep in days")
	preyMax := fs.Float64("prey-max", 0, "bloom peak prey (0 = default)")
	out := fs.String("out", "", "output path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := forcing.DefaultSeasonalConfig()
	cfg.Years = *years
	cfg.Step = *step
	if *preyMax > 0 {
		cfg.PreyMax = *preyMax
	}
	f, err := forcing.Seasonal(cfg)
	if err != nil {
		return err
	}
	return writeForcingFile(*out, f)
}

func printScalars(scalars map[string]float64) {
	names := make([]string, 0, len(scalars))
	for name := range scalars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, scalars[name])
	}
}
