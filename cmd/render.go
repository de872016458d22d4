package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"fraudwatch/aggregate"
	"fraudwatch/core"
	"fraudwatch/service"
	"fraudwatch/storage"
)

// CLI output formatters
var (
	headerColor = color.New(color.FgBlue, color.Bold)
	dimColor    = color.New(color.Faint)
)

// feedRenderer prints the capped warning feed as a table, coloring
// severities per the injected presentation map.
type feedRenderer struct {
	severityColors map[core.SeverityLevel]*color.Color
}

func newFeedRenderer(severityColors map[string]string) *feedRenderer {
	mapped := make(map[core.SeverityLevel]*color.Color, len(severityColors))
	for severity, name := range severityColors {
		mapped[core.SeverityLevel(severity)] = namedColor(name)
	}
	return &feedRenderer{severityColors: mapped}
}

func namedColor(name string) *color.Color {
	switch name {
	case "red":
		return color.New(color.FgRed)
	case "hired":
		return color.New(color.FgHiRed, color.Bold)
	case "yellow":
		return color.New(color.FgYellow)
	case "green":
		return color.New(color.FgGreen)
	case "cyan":
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}

func (r *feedRenderer) render(svc *service.WarningService, store *storage.WarningStore, feed *storage.FeedIndex) {
	ids := feed.IDs()

	classifications := strings.Join(svc.DistinctClassifications(), ", ")

	headerColor.Printf("EARLY FRAUD WARNINGS (%d in view, %d held)\n", len(ids), store.Len())
	headerColor.Println(strings.Repeat("=", 110))
	fmt.Printf("%-10s %-20s %-10s %-6s %-14s %-10s %-10s %-15s\n",
		"ID", "Classification", "Severity", "Risk", "Status", "Amount", "Currency", "Event")
	fmt.Println(strings.Repeat("-", 110))

	for _, id := range ids {
		w, err := store.Get(id)
		if err != nil {
			continue
		}

		shortID := w.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		sevColor, ok := r.severityColors[w.SeverityLevel]
		if !ok {
			sevColor = color.New(color.FgWhite)
		}

		fmt.Printf("%-10s %-20s ", shortID, truncate(w.FraudClassification, 19))
		sevColor.Printf("%-10s", w.SeverityLevel)
		fmt.Printf(" %-6.2f %-14s %-10.2f %-10s %-15s\n",
			w.RiskScore, w.InvestigationStatus,
			w.TransactionDetails.Amount, w.TransactionDetails.Currency,
			formatTimeSince(w.TimestampOfEvent))
	}

	fmt.Println(strings.Repeat("=", 110))
	dimColor.Printf("classifications seen: %s\n", classifications)
	r.renderSummary(store)
}

func (r *feedRenderer) renderSummary(store *storage.WarningStore) {
	view := store.All()
	counts := aggregate.CountByStatus(view)

	parts := make([]string, 0, len(counts))
	for _, status := range []core.InvestigationStatus{
		core.StatusNew, core.StatusPending, core.StatusInvestigating,
		core.StatusEscalated, core.StatusResolved, core.StatusFalsePositive,
	} {
		if n, ok := counts[status]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", status, n))
		}
	}
	dimColor.Printf("by status: %s\n\n", strings.Join(parts, "  "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatTimeSince(epochMillis int64) string {
	d := time.Since(time.UnixMilli(epochMillis)).Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}
