package display

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Happy-Ferret/ruby2js/internal/tracking"
	"github.com/Happy-Ferret/ruby2js/internal/utils"
)

// RunStats writes the conversion log report to w.
// Recognised args: --history N, --top N, --json, --csv.
func RunStats(tracker *tracking.Tracker, args []string, w io.Writer) error {
	if tracker == nil {
		PrintError(w, "no conversion log (tracking disabled)")
		return nil
	}

	var (
		showJSON bool
		showCSV  bool
		historyN int
		topN     = 10
	)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			showJSON = true
		case "--csv":
			showCSV = true
		case "--top":
			if i+1 < len(args) {
				topN, _ = strconv.Atoi(args[i+1])
				i++
			}
			if topN <= 0 {
				topN = 10
			}
		case "--history":
			if i+1 < len(args) {
				historyN, _ = strconv.Atoi(args[i+1])
				i++
			}
			if historyN <= 0 {
				historyN = 10
			}
		}
	}

	summary, err := tracker.GetSummary()
	if err != nil {
		return fmt.Errorf("get summary: %w", err)
	}

	if showJSON {
		return exportJSON(w, summary, tracker, topN)
	}
	if showCSV {
		return exportCSV(w, tracker, topN)
	}
	if historyN > 0 {
		return showHistory(w, tracker, historyN)
	}

	printSummary(w, summary)
	return showByFilters(w, tracker, topN)
}

func printSummary(w io.Writer, s *tracking.Summary) {
	tty := IsTerminal(w)

	fmt.Fprintln(w)
	if tty {
		fmt.Fprintln(w, HeaderStyle.Render("  ruby2js-demo conversions"))
		fmt.Fprintln(w, DimStyle.Render("  "+FormatSeparator(30)))
	} else {
		fmt.Fprintln(w, "  ruby2js-demo conversions")
		fmt.Fprintln(w, "  "+FormatSeparator(30))
	}
	fmt.Fprintln(w)

	printKPI := func(label, value string) {
		if tty {
			fmt.Fprintf(w, "  %s  %s\n", DimStyle.Render(fmt.Sprintf("%-20s", label)), StatStyle.Render(value))
		} else {
			fmt.Fprintf(w, "  %-20s  %s\n", label, value)
		}
	}

	printKPI("Conversions", strconv.Itoa(s.Total))
	printKPI("Failures", strconv.Itoa(s.Failures))
	printKPI("Ruby in", utils.FormatBytes(s.InputBytes))
	printKPI("JavaScript out", utils.FormatBytes(s.OutputBytes))
	printKPI("Total time", fmt.Sprintf("%.1fs", float64(s.TotalTimeMs)/1000))
	fmt.Fprintln(w)
}

func showByFilters(w io.Writer, tracker *tracking.Tracker, limit int) error {
	stats, err := tracker.GetByFilters(limit)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}

	if IsTerminal(w) {
		fmt.Fprintln(w, DimStyle.Render("  Filter combinations"))
	} else {
		fmt.Fprintln(w, "  Filter combinations")
	}
	fmt.Fprintln(w)

	headers := []string{"Filters", "Runs", "Failed", "Avg time"}
	var rows [][]string
	for _, s := range stats {
		rows = append(rows, []string{
			filterLabel(s.Filters),
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Failures),
			fmt.Sprintf("%.0fms", s.AvgTimeMs),
		})
	}

	fmt.Fprint(w, FormatTable(headers, rows))
	fmt.Fprintln(w)
	return nil
}

func showHistory(w io.Writer, tracker *tracking.Tracker, n int) error {
	records, err := tracker.GetRecent(n)
	if err != nil {
		return err
	}

	tty := IsTerminal(w)
	headers := []string{"When", "Mode", "Source", "Filters", "In", "Out", "Time"}
	var rows [][]string
	for _, r := range records {
		out := utils.FormatBytes(int64(r.OutputBytes))
		if r.Failed {
			out = "failed"
			if tty {
				out = ErrorStyle.Render(out)
			}
		}
		rows = append(rows, []string{
			r.Timestamp,
			r.Mode,
			utils.Truncate(r.Source, 30),
			filterLabel(r.Filters),
			utils.FormatBytes(int64(r.InputBytes)),
			out,
			fmt.Sprintf("%dms", r.ExecTimeMs),
		})
	}

	fmt.Fprint(w, FormatTable(headers, rows))
	return nil
}

func filterLabel(filters string) string {
	if filters == "" {
		return "(none)"
	}
	return utils.Truncate(filters, 40)
}

func exportJSON(w io.Writer, summary *tracking.Summary, tracker *tracking.Tracker, limit int) error {
	byFilters, _ := tracker.GetByFilters(limit)
	data := map[string]any{
		"summary":    summary,
		"by_filters": byFilters,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func exportCSV(w io.Writer, tracker *tracking.Tracker, limit int) error {
	stats, err := tracker.GetByFilters(limit)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"filters", "count", "failures", "avg_time_ms"})
	for _, s := range stats {
		_ = cw.Write([]string{
			s.Filters,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Failures),
			fmt.Sprintf("%.1f", s.AvgTimeMs),
		})
	}
	cw.Flush()
	return cw.Error()
}
