package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cognicore/jaksense/internal/dataset"
	"github.com/cognicore/jaksense/pkg/jaksense"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/config"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/store"
	"github.com/cognicore/jaksense/pkg/jaksense/store/memstore"
	"github.com/cognicore/jaksense/pkg/jaksense/store/sqlite"
)

const cliSession = "cli"

func main() {
	var (
		dbPath      = flag.String("db", "", "SQLite file keeping submitted comments (default: in memory)")
		configPath  = flag.String("config", "", "YAML config file (optional)")
		datasetPath = flag.String("dataset", "", "Backing dataset (default: embedded sample)")
		mode        = flag.String("mode", "", "Mode for a one-shot comment")
		text        = flag.String("text", "", "One-shot comment (non-interactive mode)")
	)
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Dataset.Path = *datasetPath

	engine, cleanup, err := buildEngine(ctx, cfg, *dbPath, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if *text != "" {
		if err := execute(ctx, os.Stdout, engine, *mode+" "+*text); err != nil {
			log.Fatal(err)
		}
		return
	}

	fmt.Println("===========================================")
	fmt.Println("  Jaksense CLI")
	fmt.Println("  <mode> <komentar> | stats <mode> | reset")
	fmt.Println("===========================================")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := execute(ctx, os.Stdout, engine, line); err != nil {
			fmt.Println("Error:", err)
		}
	}
	fmt.Println("\nSampai jumpa!")
}

// execute runs one input line: "stats <mode>", "reset", or "<mode> <text>".
func execute(ctx context.Context, w io.Writer, engine *jaksense.Engine, line string) error {
	head, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(head) {
	case "reset":
		if err := engine.Reset(ctx, cliSession); err != nil {
			return err
		}
		fmt.Fprintln(w, "Sesi dikosongkan.")
		return nil
	case "stats":
		mode, err := comment.ParseMode(rest)
		if err != nil {
			return err
		}
		return printStats(ctx, w, engine, mode)
	}

	mode, err := comment.ParseMode(head)
	if err != nil {
		return err
	}
	res, err := engine.Analyze(ctx, cliSession, mode, rest)
	if errors.Is(err, internalerr.ErrEmptyComment) {
		fmt.Fprintln(w, "Komentar kosong, tidak disimpan.")
		return nil
	}
	if err != nil {
		return err
	}

	rec := res.Record
	tags := "Tidak terdeteksi"
	if rec.HasTags() {
		tags = strings.Join(rec.TagStrings(), ", ")
	}
	fmt.Fprintf(w, "Sentimen: %s (%.0f%%, %s)\nModa: %s\nAspek: %s\n",
		rec.Sentiment, rec.Confidence*100, res.Backend, rec.Mode.DisplayName(), tags)
	return nil
}

func printStats(ctx context.Context, w io.Writer, engine *jaksense.Engine, mode comment.Mode) error {
	d, err := engine.Dashboard(ctx, cliSession, mode)
	if err != nil {
		return err
	}
	if d.NoData {
		fmt.Fprintf(w, "%s: belum ada data\n", mode.DisplayName())
		return nil
	}
	fmt.Fprintf(w, "%s: %d komentar\n", mode.DisplayName(), d.View.Total)
	for _, label := range engine.Router().Labels() {
		pct, _ := d.Percent(label)
		fmt.Fprintf(w, "  %s: %d (%.1f%%)\n", label, d.View.Count(label), pct)
	}
	if len(d.Trend) > 0 {
		fmt.Fprintln(w, "Tren aspek:")
		for i, tc := range d.Trend {
			fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, tc.Tag, tc.Count)
		}
	}
	return nil
}

func buildEngine(ctx context.Context, cfg config.Config, dbPath string, logger *slog.Logger) (*jaksense.Engine, func(), error) {
	components, err := (&config.Loader{Config: cfg, Logger: logger}).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	ingester := ingest.New(components.Router)

	baseline, err := (&dataset.Loader{Ingester: ingester, Logger: logger}).Load(cfg.Dataset.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}

	var st store.Store = memstore.New()
	if dbPath != "" {
		if st, err = sqlite.OpenSQLite(ctx, dbPath); err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
	}

	engine, err := jaksense.New(jaksense.Options{
		Store:      st,
		Ingester:   ingester,
		Classifier: components.Classifier,
		Baseline:   baseline,
		Logger:     logger,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	cleanup := func() {
		engine.Close()
	}
	return engine, cleanup, nil
}
