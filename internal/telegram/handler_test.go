package telegram

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cognicore/jaksense/pkg/jaksense"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/routing"
	"github.com/cognicore/jaksense/pkg/jaksense/sentiment"
	"github.com/cognicore/jaksense/pkg/jaksense/store/memstore"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

func newHandler(t *testing.T) (*Handler, *jaksense.Engine) {
	t.Helper()
	set, err := taxonomy.Default()
	if err != nil {
		t.Fatal(err)
	}
	router, err := routing.New(set, routing.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := jaksense.New(jaksense.Options{
		Store:      memstore.New(),
		Ingester:   ingest.New(router),
		Classifier: sentiment.DefaultLexicon(),
		Logger:     logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { engine.Close() })
	return NewHandler(engine, logger), engine
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		in, cmd, args string
	}{
		{"/lapor tj bus telat", "/lapor", "tj bus telat"},
		{"/STATS@JakSenseBot  krl ", "/stats", "krl"},
		{"  /reset", "/reset", ""},
		{"halo", "halo", ""},
	}
	for _, tc := range cases {
		cmd, args := splitCommand(tc.in)
		if cmd != tc.cmd || args != tc.args {
			t.Errorf("splitCommand(%q) = %q, %q; want %q, %q", tc.in, cmd, args, tc.cmd, tc.args)
		}
	}
}

func TestHandleReport(t *testing.T) {
	ctx := context.Background()
	h, engine := newHandler(t)

	reply := h.Handle(ctx, 42, "/lapor tj bus telat dan penuh")
	if !strings.Contains(reply, "Negatif") || !strings.Contains(reply, "TransJakarta") {
		t.Errorf("reply = %q", reply)
	}
	own, err := engine.SessionRecords(ctx, SessionID(42))
	if err != nil || len(own) != 1 {
		t.Fatalf("records = %v, %v", own, err)
	}

	if other, _ := engine.SessionRecords(ctx, SessionID(7)); len(other) != 0 {
		t.Error("chats must not share sessions")
	}

	if reply := h.Handle(ctx, 42, "/lapor krl qqq zzz"); !strings.Contains(reply, "Tidak terdeteksi") {
		t.Errorf("untagged reply = %q", reply)
	}
}

func TestHandleReportErrors(t *testing.T) {
	ctx := context.Background()
	h, engine := newHandler(t)

	if reply := h.Handle(ctx, 1, "/lapor tj"); !strings.Contains(reply, "kosong") {
		t.Errorf("empty comment reply = %q", reply)
	}
	if reply := h.Handle(ctx, 1, "/lapor mrt telat"); !strings.Contains(reply, "Moda tidak dikenal") {
		t.Errorf("unknown mode reply = %q", reply)
	}
	if total, _ := engine.Total(ctx, SessionID(1)); total != 0 {
		t.Errorf("failed reports stored %d records", total)
	}
}

func TestHandleStatsAndReset(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)

	if reply := h.Handle(ctx, 5, "/stats jak"); !strings.Contains(reply, "Belum ada data") {
		t.Errorf("no data reply = %q", reply)
	}

	h.Handle(ctx, 5, "/lapor jak jaklingko telat")
	h.Handle(ctx, 5, "/lapor jak jaklingko nyaman")
	reply := h.Handle(ctx, 5, "/stats jak")
	for _, want := range []string{"JakLingko: 2 komentar", "Positif: 1 (50.0%)", "Negatif: 1 (50.0%)", "Keterlambatan"} {
		if !strings.Contains(reply, want) {
			t.Errorf("stats reply missing %q:\n%s", want, reply)
		}
	}

	if reply := h.Handle(ctx, 5, "/reset"); !strings.Contains(reply, "dihapus") {
		t.Errorf("reset reply = %q", reply)
	}
	if reply := h.Handle(ctx, 5, "/stats jak"); !strings.Contains(reply, "Belum ada data") {
		t.Errorf("stats after reset = %q", reply)
	}
}

func TestHandleHelpAndUnknown(t *testing.T) {
	h, _ := newHandler(t)
	if reply := h.Handle(context.Background(), 1, "/help"); !strings.Contains(reply, "/lapor") {
		t.Errorf("help = %q", reply)
	}
	if reply := h.Handle(context.Background(), 1, "halo"); !strings.Contains(reply, "/help") {
		t.Errorf("unknown = %q", reply)
	}
}
