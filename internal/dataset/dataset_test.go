package dataset

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/jaksense/pkg/jaksense/analytics"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/routing"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLoader(t *testing.T) *Loader {
	t.Helper()
	set, err := taxonomy.Default()
	if err != nil {
		t.Fatal(err)
	}
	router, err := routing.New(set, routing.DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}
	return &Loader{Ingester: ingest.New(router), Logger: quietLogger()}
}

func TestParseTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"['Kondisi', 'Kenyamanan']", []string{"Kondisi", "Kenyamanan"}},
		{`["Akses/Rute"]`, []string{"Akses/Rute"}},
		{"[Harga]", []string{"Harga"}},
		{"[]", nil},
		{"", nil},
		{"Kondisi", nil},
		{"{'a': 1}", nil},
		{"['Kondisi', '']", []string{"Kondisi"}},
		{"['Sopir 'ugal']", []string{"Sopir 'ugal"}},
	}
	for _, tc := range cases {
		got := ParseTags(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("ParseTags(%q) = %q, want %q", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("ParseTags(%q) = %q, want %q", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestReadCSVAliases(t *testing.T) {
	data := "Kategori,Tweet,Sentiment,problem\n" +
		"tj,\"Bus penuh, AC mati\",Negatif,\"['Kondisi']\"\n" +
		"krl,Kereta nyaman,positive,[]\n"
	rows, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Mode != "tj" || rows[0].Text != "Bus penuh, AC mati" || rows[0].Sentiment != "Negatif" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !rows[0].HasTags || len(rows[0].Tags) != 1 || rows[0].Tags[0] != "Kondisi" {
		t.Errorf("row 0 tags = %v", rows[0].Tags)
	}
	if !rows[1].HasTags || len(rows[1].Tags) != 0 {
		t.Errorf("row 1 should have an empty tag list, got %v", rows[1].Tags)
	}
}

func TestReadCSVRequiresColumns(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("foo,bar\n1,2\n")); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("empty input: expected ErrInvalidInput, got %v", err)
	}
}

func TestReadJSONL(t *testing.T) {
	data := `{"mode":"jak","text":"telat lagi","sentiment":"Negatif","tags":["Keterlambatan"]}
not json
{"Kategori":"tj","Tweet":"halte bersih","Sentiment":"Positif","problem":"['Kebersihan']"}

{"mode":"krl","text":"biasa"}
`
	rows, err := ReadJSONL(strings.NewReader(data), quietLogger())
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].Mode != "jak" || len(rows[0].Tags) != 1 || rows[0].Tags[0] != "Keterlambatan" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Mode != "tj" || rows[1].Text != "halte bersih" || rows[1].Tags[0] != "Kebersihan" {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[2].HasTags {
		t.Errorf("row 2 has no tag field, got %+v", rows[2])
	}
}

func TestSample(t *testing.T) {
	rows := Sample()
	if len(rows) != 8 {
		t.Fatalf("sample has %d rows, want 8", len(rows))
	}
	for i, row := range rows {
		if !row.HasTags || len(row.Tags) == 0 {
			t.Errorf("sample row %d has no tags", i)
		}
	}
}

func TestLoadMissingFileFallsBackToSample(t *testing.T) {
	l := testLoader(t)
	records, err := l.Load(filepath.Join(t.TempDir(), "trial_df.csv"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("expected 8 sample records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Source != comment.SourceBaseline {
			t.Errorf("record %s source = %q", rec.ID, rec.Source)
		}
	}

	view, err := analytics.Aggregate(records, comment.ModeBRT)
	if err != nil {
		t.Fatal(err)
	}
	if view.Total != 3 || view.Count(comment.Positive) != 2 || view.Count(comment.Negative) != 1 {
		t.Errorf("sample tj view = total %d, %v", view.Total, view.Sentiments)
	}
	if view.TagCount("Kenyamanan") != 2 {
		t.Errorf("Kenyamanan = %d, want 2", view.TagCount("Kenyamanan"))
	}
}

func TestLoadFileKeepsGivenTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "Kategori,Tweet,Sentiment,problem\n" +
		"tj,bus telat,Negatif,\"['Label Lama']\"\n" +
		"tj,kereta,Negatif,[]\n" +
		"lrt,lintas rel,Positif,['Harga']\n" +
		"krl,<b>KRL</b> &amp; nyaman,Netral,\"['Kenyamanan']\"\n" +
		"jak,,Positif,[]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := testLoader(t).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records (unknown mode and empty text skipped), got %d", len(records))
	}
	if len(records[0].Tags) != 1 || records[0].Tags[0] != "Label Lama" {
		t.Errorf("dataset tags must be kept as given, got %v", records[0].Tags)
	}
	if records[1].HasTags() {
		t.Errorf("[] should load as no tags, got %v", records[1].Tags)
	}
	if records[2].Text != "KRL & nyaman" {
		t.Errorf("markup not stripped: %q", records[2].Text)
	}
	if records[2].Sentiment != comment.Positive {
		t.Errorf("Netral should be coerced to Positif under two labels, got %q", records[2].Sentiment)
	}
}

func TestLoadRetagsWhenNoTagColumn(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("mode,text,sentiment\ntj,bus penuh sesak dan ac mati,negatif\n"))
	if err != nil {
		t.Fatal(err)
	}
	records := testLoader(t).Records(rows)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	found := false
	for _, tag := range records[0].Tags {
		if tag == taxonomy.Kondisi {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Kondisi from re-tagging, got %v", records[0].Tags)
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := testLoader(t).Load(path); err == nil {
		t.Error("expected error for a csv without mode/text columns")
	}
}

func TestLoadLogsFallback(t *testing.T) {
	var buf bytes.Buffer
	l := testLoader(t)
	l.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	if _, err := l.Load(""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "sample data") {
		t.Errorf("fallback not logged: %s", buf.String())
	}
}
