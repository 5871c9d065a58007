package dataset

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

//go:embed sample.csv
var sampleCSV []byte

// Row is one dataset entry before validation.
type Row struct {
	Mode      string
	Text      string
	Sentiment string
	// Tags is the pre-assigned tag list. HasTags is false when the source
	// has no tag column at all, in which case the row is tagged on load.
	Tags    []string
	HasTags bool
}

// Header aliases, lower-cased.
var (
	modeColumns      = []string{"kategori", "mode", "category", "moda"}
	textColumns      = []string{"tweet", "text", "comment", "komentar"}
	sentimentColumns = []string{"sentiment", "sentimen", "label"}
	tagColumns       = []string{"problem", "problems", "tags", "aspek"}
)

// ReadCSV reads a dataset with a header row. Mode and text columns are
// required; sentiment and tags are optional.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", internalerr.ErrInvalidInput, err)
	}
	modeCol := findColumn(header, modeColumns)
	textCol := findColumn(header, textColumns)
	sentCol := findColumn(header, sentimentColumns)
	tagCol := findColumn(header, tagColumns)
	if modeCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("%w: csv needs mode and text columns, got %v", internalerr.ErrInvalidInput, header)
	}

	var rows []Row
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", internalerr.ErrInvalidInput, err)
		}
		row := Row{
			Mode: field(fields, modeCol),
			Text: field(fields, textCol),
		}
		if sentCol >= 0 {
			row.Sentiment = field(fields, sentCol)
		}
		if tagCol >= 0 {
			row.Tags = ParseTags(field(fields, tagCol))
			row.HasTags = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type jsonRow struct {
	Mode      string          `json:"mode"`
	Kategori  string          `json:"Kategori"`
	Text      string          `json:"text"`
	Tweet     string          `json:"Tweet"`
	Sentiment string          `json:"sentiment"`
	Sentimen  string          `json:"Sentiment"`
	Tags      json.RawMessage `json:"tags"`
	Problem   json.RawMessage `json:"problem"`
}

// ReadJSONL reads one JSON object per line. Tags may be an array or a
// serialized list string. Malformed lines are skipped with a warning.
func ReadJSONL(r io.Reader, logger *slog.Logger) ([]Row, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var rows []Row
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var jr jsonRow
		if err := json.Unmarshal([]byte(text), &jr); err != nil {
			logger.Warn("skipping malformed dataset line", "line", line, "error", err)
			continue
		}
		row := Row{
			Mode:      firstNonEmpty(jr.Mode, jr.Kategori),
			Text:      firstNonEmpty(jr.Text, jr.Tweet),
			Sentiment: firstNonEmpty(jr.Sentiment, jr.Sentimen),
		}
		raw := jr.Tags
		if len(raw) == 0 {
			raw = jr.Problem
		}
		if len(raw) > 0 {
			row.Tags, row.HasTags = decodeJSONTags(raw), true
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return rows, nil
}

func decodeJSONTags(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, tag := range list {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
		return out
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseTags(s)
	}
	return nil
}

// Sample returns the rows of the embedded fallback dataset.
func Sample() []Row {
	rows, err := ReadCSV(bytes.NewReader(sampleCSV))
	if err != nil {
		panic(fmt.Sprintf("embedded sample dataset: %v", err))
	}
	return rows
}

// ReadFile reads a CSV or JSONL file, chosen by extension.
func ReadFile(path string, logger *slog.Logger) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return ReadJSONL(f, logger)
	default:
		return ReadCSV(f)
	}
}

// Loader turns dataset rows into baseline records.
type Loader struct {
	Ingester *ingest.Ingester
	Logger   *slog.Logger
}

// Load reads path into baseline records. A missing file, or an empty path,
// falls back to the embedded sample.
func (l *Loader) Load(path string) ([]comment.Record, error) {
	logger := l.logger()

	var rows []Row
	if path == "" {
		logger.Warn("no dataset configured, using sample data")
		rows = Sample()
	} else {
		var err error
		rows, err = ReadFile(path, logger)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("dataset not found, using sample data", "path", path)
			rows = Sample()
		case err != nil:
			return nil, fmt.Errorf("load dataset %s: %w", path, err)
		}
	}

	records := l.Records(rows)
	logger.Info("dataset loaded", "path", path, "rows", len(rows), "records", len(records))
	return records, nil
}

// Records converts rows in order. Rows with an unknown mode or no text are
// skipped. Sentiments outside the router's label set are coerced into it;
// unreadable ones count as Positif.
func (l *Loader) Records(rows []Row) []comment.Record {
	logger := l.logger()
	router := l.Ingester.Router()

	records := make([]comment.Record, 0, len(rows))
	for i, row := range rows {
		mode, err := comment.ParseMode(row.Mode)
		if err != nil {
			logger.Warn("skipping dataset row", "row", i+1, "error", err)
			continue
		}
		text := ingest.PlainText(row.Text)
		if text == "" {
			logger.Warn("skipping dataset row", "row", i+1, "error", "empty text")
			continue
		}
		sentiment, err := comment.ParseSentiment(row.Sentiment)
		if err != nil {
			sentiment = comment.Positive
		}
		sentiment = router.Coerce(sentiment)

		tags := row.Tags
		if !row.HasTags {
			labels, err := router.Route(sentiment, text)
			if err != nil {
				logger.Warn("skipping dataset row", "row", i+1, "error", err)
				continue
			}
			tags = make([]string, len(labels))
			for j, label := range labels {
				tags[j] = string(label)
			}
		}

		rec, err := l.Ingester.Baseline(mode, text, sentiment, tags, time.Time{})
		if err != nil {
			logger.Warn("skipping dataset row", "row", i+1, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, alias := range aliases {
			if name == alias {
				return i
			}
		}
	}
	return -1
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
