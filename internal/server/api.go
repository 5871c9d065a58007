package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/jaksense/pkg/jaksense/analytics"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

type recordJSON struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	Text       string    `json:"text"`
	Sentiment  string    `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Tags       []string  `json:"tags"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

func toRecordJSON(rec comment.Record) recordJSON {
	return recordJSON{
		ID:         rec.ID,
		Mode:       string(rec.Mode),
		Text:       rec.Text,
		Sentiment:  string(rec.Sentiment),
		Confidence: rec.Confidence,
		Tags:       rec.TagStrings(),
		Source:     string(rec.Source),
		CreatedAt:  rec.CreatedAt,
	}
}

type tagCountJSON struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

func toTagCounts(counts []analytics.TagCount) []tagCountJSON {
	out := make([]tagCountJSON, len(counts))
	for i, tc := range counts {
		out[i] = tagCountJSON{Tag: string(tc.Tag), Count: tc.Count}
	}
	return out
}

type feedItemJSON struct {
	recordJSON
	IsNew bool `json:"is_new"`
}

type statsJSON struct {
	Mode        string             `json:"mode"`
	NoData      bool               `json:"no_data"`
	Total       int                `json:"total"`
	Sentiments  map[string]int     `json:"sentiments"`
	Percentages map[string]float64 `json:"percentages"`
	ChartKind   string             `json:"chart_kind,omitempty"`
	Chart       []tagCountJSON     `json:"chart"`
	Trend       []tagCountJSON     `json:"trend"`
	Feed        []feedItemJSON     `json:"feed"`
}

func (s *Server) getStats(c *gin.Context) {
	mode, err := comment.ParseMode(c.Param("mode"))
	if err != nil {
		s.fail(c, fmt.Errorf("%w: mode %q", internalerr.ErrNotFound, c.Param("mode")))
		return
	}
	d, err := s.engine.Dashboard(c.Request.Context(), sessionID(c), mode)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := statsJSON{
		Mode:        string(mode),
		NoData:      d.NoData,
		Sentiments:  map[string]int{},
		Percentages: map[string]float64{},
		Chart:       []tagCountJSON{},
		Trend:       []tagCountJSON{},
		Feed:        []feedItemJSON{},
	}
	if !d.NoData {
		out.Total = d.View.Total
		for _, label := range s.engine.Router().Labels() {
			out.Sentiments[string(label)] = d.View.Count(label)
			if pct, ok := d.Percent(label); ok {
				out.Percentages[string(label)] = pct
			}
		}
		if d.HasChart {
			out.ChartKind = d.ChartKind.String()
			out.Chart = toTagCounts(d.Chart)
		}
		out.Trend = toTagCounts(d.Trend)
		for _, item := range d.Feed {
			out.Feed = append(out.Feed, feedItemJSON{recordJSON: toRecordJSON(item.Record), IsNew: item.IsNew})
		}
	}
	c.JSON(http.StatusOK, out)
}

type commentRequest struct {
	Mode string `json:"mode" binding:"required"`
	Text string `json:"text"`
}

func (s *Server) postComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := comment.ParseMode(req.Mode)
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := s.engine.Analyze(c.Request.Context(), sessionID(c), mode, req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"record":  toRecordJSON(res.Record),
		"backend": res.Backend,
	})
}

func (s *Server) getComments(c *gin.Context) {
	records, err := s.engine.SessionRecords(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordJSON(rec))
	}
	c.JSON(http.StatusOK, gin.H{"session": sessionID(c), "comments": out})
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.engine.Reset(c.Request.Context(), sessionID(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type tagRequest struct {
	Sentiment string `json:"sentiment" binding:"required"`
	Text      string `json:"text"`
}

// postTag tags text without classifying or storing it.
func (s *Server) postTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	label, err := comment.ParseSentiment(req.Sentiment)
	if err != nil {
		s.fail(c, err)
		return
	}
	router := s.engine.Router()
	label = router.Coerce(label)
	kind, err := router.SelectTaxonomy(label)
	if err != nil {
		s.fail(c, err)
		return
	}
	tags, err := router.Route(label, ingest.PlainText(req.Text))
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = string(tag)
	}
	c.JSON(http.StatusOK, gin.H{
		"sentiment": label,
		"taxonomy":  kind.String(),
		"tags":      out,
	})
}

func (s *Server) getTaxonomies(c *gin.Context) {
	router := s.engine.Router()
	out := gin.H{}
	for _, kind := range taxonomy.Kinds() {
		labels := router.Taxonomies().Lookup(kind).Labels()
		names := make([]string, len(labels))
		for i, l := range labels {
			names[i] = string(l)
		}
		out[kind.String()] = names
	}
	policy := router.Policy()
	out["policy"] = gin.H{
		"labels":      router.Labels(),
		"no_match":    policy.NoMatch,
		"other_label": policy.OtherLabel,
	}
	c.JSON(http.StatusOK, out)
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internalerr.ErrEmptyComment):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, internalerr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, internalerr.ErrStoreUnavailable), errors.Is(err, internalerr.ErrClassifierUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
