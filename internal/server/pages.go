package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/jaksense/pkg/jaksense"
	"github.com/cognicore/jaksense/pkg/jaksense/analytics"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

const (
	defaultMode  = comment.ModeBRT
	noTagsLabel  = "Tidak terdeteksi"
	emptyWarning = "Komentar tidak boleh kosong."
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

type modeTab struct {
	Mode   comment.Mode
	Name   string
	Active bool
}

type barRow struct {
	Tag   string
	Count int
	Width int
}

type feedRow struct {
	Text      string
	Sentiment string
	Tags      []string
	IsNew     bool
}

type summary struct {
	Sentiment  string
	Confidence string
	ModeName   string
	Tags       []string
	Backend    string
}

type pageData struct {
	Tabs     []modeTab
	Mode     comment.Mode
	ModeName string
	NoData   bool

	Total       int
	Positive    int
	Negative    int
	Neutral     int
	PositivePct string
	NegativePct string
	NeutralPct  string
	ShowNeutral bool

	ChartTitle string
	ChartGood  bool
	Chart      []barRow
	Trend      []barRow
	Feed       []feedRow

	Analysis   *summary
	Warning    string
	Draft      string
	GrandTotal int
}

func (s *Server) showDashboard(c *gin.Context) {
	mode, err := comment.ParseMode(c.Param("mode"))
	if err != nil {
		c.String(http.StatusNotFound, "unknown mode %q", c.Param("mode"))
		return
	}
	s.render(c, pageData{Mode: mode})
}

func (s *Server) submitForm(c *gin.Context) {
	mode, err := comment.ParseMode(c.DefaultPostForm("mode", string(defaultMode)))
	if err != nil {
		c.String(http.StatusBadRequest, "%v", err)
		return
	}
	text := c.PostForm("text")

	res, err := s.engine.Analyze(c.Request.Context(), sessionID(c), mode, text)
	switch {
	case errors.Is(err, internalerr.ErrEmptyComment):
		s.render(c, pageData{Mode: mode, Warning: emptyWarning, Draft: text})
		return
	case err != nil:
		s.fail(c, err)
		return
	}

	rec := res.Record
	tags := rec.TagStrings()
	if len(tags) == 0 {
		tags = []string{noTagsLabel}
	}
	s.render(c, pageData{Mode: mode, Analysis: &summary{
		Sentiment:  string(rec.Sentiment),
		Confidence: fmt.Sprintf("%.0f%%", rec.Confidence*100),
		ModeName:   rec.Mode.DisplayName(),
		Tags:       tags,
		Backend:    string(res.Backend),
	}})
}

func (s *Server) resetForm(c *gin.Context) {
	mode, err := comment.ParseMode(c.DefaultPostForm("mode", string(defaultMode)))
	if err != nil {
		mode = defaultMode
	}
	if err := s.engine.Reset(c.Request.Context(), sessionID(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard/"+string(mode))
}

// render fills the aggregate part of data for data.Mode and writes the page.
func (s *Server) render(c *gin.Context, data pageData) {
	ctx := c.Request.Context()
	session := sessionID(c)

	d, err := s.engine.Dashboard(ctx, session, data.Mode)
	if err != nil {
		s.fail(c, err)
		return
	}
	total, err := s.engine.Total(ctx, session)
	if err != nil {
		s.fail(c, err)
		return
	}

	for _, m := range comment.AllModes() {
		data.Tabs = append(data.Tabs, modeTab{Mode: m, Name: m.DisplayName(), Active: m == data.Mode})
	}
	data.ModeName = data.Mode.DisplayName()
	data.GrandTotal = total
	data.NoData = d.NoData
	for _, l := range s.engine.Router().Labels() {
		if l == comment.Neutral {
			data.ShowNeutral = true
		}
	}

	if !d.NoData {
		v := d.View
		data.Total = v.Total
		data.Positive = v.Count(comment.Positive)
		data.Negative = v.Count(comment.Negative)
		data.Neutral = v.Count(comment.Neutral)
		data.PositivePct = formatPercent(d, comment.Positive)
		data.NegativePct = formatPercent(d, comment.Negative)
		data.NeutralPct = formatPercent(d, comment.Neutral)

		if d.HasChart {
			data.ChartTitle = chartTitle(d.ChartKind)
			data.ChartGood = d.ChartKind == taxonomy.GoodAspect
			data.Chart = bars(d.Chart)
		}
		data.Trend = bars(d.Trend)
		for _, item := range d.Feed {
			data.Feed = append(data.Feed, feedRow{
				Text:      item.Record.Text,
				Sentiment: string(item.Record.Sentiment),
				Tags:      item.Record.TagStrings(),
				IsNew:     item.IsNew,
			})
		}
	}

	c.HTML(http.StatusOK, "dashboard.html", data)
}

func formatPercent(d jaksense.Dashboard, s comment.Sentiment) string {
	pct, ok := d.Percent(s)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", pct)
}

func chartTitle(kind taxonomy.Kind) string {
	if kind == taxonomy.Problem {
		return "Masalah yang paling sering disebut"
	}
	return "Aspek positif yang paling sering disebut"
}

// bars scales counts against the largest one for the CSS bar width.
func bars(counts []analytics.TagCount) []barRow {
	top := 0
	for _, tc := range counts {
		if tc.Count > top {
			top = tc.Count
		}
	}
	out := make([]barRow, 0, len(counts))
	for _, tc := range counts {
		width := 0
		if top > 0 {
			width = tc.Count * 100 / top
		}
		out = append(out, barRow{Tag: string(tc.Tag), Count: tc.Count, Width: width})
	}
	return out
}
