package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const scrapeTimeout = 10 * time.Second

type metricsCmd struct {
	URL    string `help:"Metrics endpoint; overrides metrics_url." short:"u"`
	Prefix string `help:"Only show families with this name prefix." default:"peloton_"`
}

func (c *metricsCmd) Run(g *globalCmd) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	url := cfg.MetricsURL
	if c.URL != "" {
		url = c.URL
	}

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()
	mfs, err := fetchMetrics(ctx, http.DefaultClient, url)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", url, err)
	}
	writeMetrics(os.Stdout, mfs, c.Prefix)
	return nil
}

func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition. A partial parse with
// families is still a success.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// writeMetrics prints one row per series. Histograms and summaries show
// their sample count and sum.
func writeMetrics(w io.Writer, mfs map[string]*dto.MetricFamily, prefix string) {
	names := make([]string, 0, len(mfs))
	for name := range mfs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Type", "Labels", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})

	for _, name := range names {
		mf := mfs[name]
		for _, m := range mf.GetMetric() {
			t.AppendRow(table.Row{name, strings.ToLower(mf.GetType().String()), labels(m), value(m)})
		}
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d families", len(names))})
	t.Render()
}

func labels(m *dto.Metric) string {
	pairs := make([]string, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
	}
	return strings.Join(pairs, ",")
}

func value(m *dto.Metric) string {
	switch {
	case m.Counter != nil:
		return fmt.Sprintf("%g", m.Counter.GetValue())
	case m.Gauge != nil:
		return fmt.Sprintf("%g", m.Gauge.GetValue())
	case m.Untyped != nil:
		return fmt.Sprintf("%g", m.Untyped.GetValue())
	case m.Histogram != nil:
		return fmt.Sprintf("n=%d sum=%g", m.Histogram.GetSampleCount(), m.Histogram.GetSampleSum())
	case m.Summary != nil:
		return fmt.Sprintf("n=%d sum=%g", m.Summary.GetSampleCount(), m.Summary.GetSampleSum())
	}
	return ""
}
