// Package report formats timing series into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/weiihann/timingplot/series"
)

// Summary holds descriptive statistics for one series.
type Summary struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Mean   float64   `json:"mean"`
	Median float64   `json:"median"`
	StdDev float64   `json:"stddev"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// Summarize computes a Summary for s.
func Summarize(s series.Series) (Summary, error) {
	data := stats.Float64Data(s.Values)
	sum := Summary{Name: s.Name, Values: s.Values}

	var err error

	if sum.Mean, err = data.Mean(); err != nil {
		return Summary{}, fmt.Errorf("mean of %s: %w", s.Name, err)
	}

	if sum.Median, err = data.Median(); err != nil {
		return Summary{}, fmt.Errorf("median of %s: %w", s.Name, err)
	}

	if sum.StdDev, err = data.StandardDeviation(); err != nil {
		return Summary{}, fmt.Errorf("stddev of %s: %w", s.Name, err)
	}

	if sum.Min, err = data.Min(); err != nil {
		return Summary{}, fmt.Errorf("min of %s: %w", s.Name, err)
	}

	if sum.Max, err = data.Max(); err != nil {
		return Summary{}, fmt.Errorf("max of %s: %w", s.Name, err)
	}

	return sum, nil
}

// Generate writes a per-size comparison table and a summary table. Every
// series after the first also gets a ratio column against the first.
func Generate(w io.Writer, sizes []int, results []series.Series) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	summaries, err := summarizeAll(results)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "## Timing Results")
	fmt.Fprintln(w)

	header := []string{"Size"}
	for _, s := range results {
		header = append(header, s.Name)
	}

	for _, s := range results[1:] {
		header = append(header, s.Name+"/"+results[0].Name)
	}

	table := newMarkdownTable(w, header)

	for i, size := range sizes {
		row := []string{strconv.Itoa(size)}

		for _, s := range results {
			row = append(row, valueAt(s.Values, i))
		}

		for _, s := range results[1:] {
			row = append(row, ratioAt(s.Values, results[0].Values, i))
		}

		table.Append(row)
	}

	table.Render()
	fmt.Fprintln(w)

	summary := newMarkdownTable(w,
		[]string{"Series", "Mean", "Median", "Stddev", "Min", "Max"})

	for _, s := range summaries {
		summary.Append([]string{
			s.Name,
			formatSeconds(s.Mean),
			formatSeconds(s.Median),
			formatSeconds(s.StdDev),
			formatSeconds(s.Min),
			formatSeconds(s.Max),
		})
	}

	summary.Render()

	return nil
}

// GenerateJSON writes sizes and per-series summaries as JSON to w.
func GenerateJSON(w io.Writer, sizes []int, results []series.Series) error {
	summaries, err := summarizeAll(results)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(struct {
		Sizes  []int     `json:"sizes"`
		Series []Summary `json:"series"`
	}{sizes, summaries})
}

func newMarkdownTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Right: true})
	table.SetCenterSeparator("|")
	table.SetHeader(header)

	return table
}

func summarizeAll(results []series.Series) ([]Summary, error) {
	summaries := make([]Summary, 0, len(results))

	for _, s := range results {
		sum, err := Summarize(s)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, sum)
	}

	return summaries, nil
}

func valueAt(values []float64, i int) string {
	if i >= len(values) {
		return "-"
	}

	return formatSeconds(values[i])
}

func ratioAt(values, base []float64, i int) string {
	if i >= len(values) || i >= len(base) || base[i] == 0 {
		return "-"
	}

	return fmt.Sprintf("%.2fx", values[i]/base[i])
}

// formatSeconds prints sub-second values in milliseconds.
func formatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.0fms", s*1000)
	}

	return fmt.Sprintf("%.3fs", s)
}
