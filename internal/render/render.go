package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Alias1177/stockgpt/internal/analyze"
	"github.com/Alias1177/stockgpt/models"
)

// Options for a Renderer
type Options struct {
	// Style is a glamour standard style: "dark", "light", "notty" or "ascii"
	Style string
	Width int
}

// Renderer turns analysis results into terminal text
type Renderer struct {
	md *glamour.TermRenderer
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	badgeBase    = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	badgeColors = map[string]lipgloss.Color{
		models.RecommendationStrongBuy:  lipgloss.Color("28"),
		models.RecommendationBuy:        lipgloss.Color("34"),
		models.RecommendationHold:       lipgloss.Color("178"),
		models.RecommendationSell:       lipgloss.Color("166"),
		models.RecommendationStrongSell: lipgloss.Color("160"),
	}
)

func New(opts Options) (*Renderer, error) {
	if opts.Style == "" {
		opts.Style = "dark"
	}
	if opts.Width <= 0 {
		opts.Width = 100
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(opts.Style),
		glamour.WithWordWrap(opts.Width),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Renderer{md: md}, nil
}

// Analysis renders the full report for one result
func (r *Renderer) Analysis(res *models.AnalysisResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", res.Symbol, res.CompanyName)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s  %s  confidence %d%%\n",
		Price(res.Currency, res.CurrentPrice), Badge(res.Signal.Recommendation), res.Signal.ConfidenceScore))
	if res.Signal.Rationale != "" {
		sb.WriteString(mutedStyle.Render(res.Signal.Rationale))
		sb.WriteString("\n")
	}

	summary, err := r.markdown(res.Summary)
	if err != nil {
		return "", err
	}
	sb.WriteString(summary)

	sb.WriteString(headingStyle.Render("Key metrics"))
	sb.WriteString("\n")
	sb.WriteString(metricsTable(res.Metrics))
	sb.WriteString("\n")

	if len(res.Scenarios) > 0 {
		sb.WriteString(headingStyle.Render("Scenarios"))
		sb.WriteString("\n")
		sb.WriteString(scenarioTable(res.Currency, res.Scenarios))
		sb.WriteString("\n")
	}

	if forecasts := forecastTable(res.Currency, res.Forecasts); forecasts != "" {
		sb.WriteString(headingStyle.Render("Forecast targets"))
		sb.WriteString("\n")
		sb.WriteString(forecasts)
		sb.WriteString("\n")
	}

	for _, s := range res.Sections {
		body, err := r.markdown(fmt.Sprintf("## %s\n\n%s", s.Title, s.Content))
		if err != nil {
			return "", err
		}
		sb.WriteString(body)
	}

	if len(res.Recommendations) > 0 {
		sb.WriteString(headingStyle.Render("Peers"))
		sb.WriteString("\n")
		sb.WriteString(peerTable(res.Currency, res.Recommendations))
		sb.WriteString("\n")
	}

	if len(res.PortfolioAllocation) > 0 {
		sb.WriteString(headingStyle.Render("Suggested allocation"))
		sb.WriteString("\n")
		for _, slice := range res.PortfolioAllocation {
			sb.WriteString(fmt.Sprintf("  %-12s %5.1f%%\n", slice.Asset, slice.Percentage))
		}
	}

	if len(res.News) > 0 {
		sb.WriteString(headingStyle.Render("News"))
		sb.WriteString("\n")
		for _, n := range res.News {
			sb.WriteString(fmt.Sprintf("  [%s] %s  %s\n", n.Sentiment, n.Title, mutedStyle.Render(n.Source)))
		}
	}

	if g := res.Grounding; g != nil && len(g.Sources) > 0 {
		sb.WriteString(headingStyle.Render("Sources"))
		sb.WriteString("\n")
		for i, src := range g.Sources {
			sb.WriteString(fmt.Sprintf("  %d. %s %s\n", i+1, src.Title, mutedStyle.Render(src.URI)))
		}
	}

	return sb.String(), nil
}

func (r *Renderer) markdown(text string) (string, error) {
	out, err := r.md.Render(text)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Badge renders a recommendation in its signal colour
func Badge(recommendation string) string {
	style := badgeBase
	if c, ok := badgeColors[recommendation]; ok {
		style = style.Background(c).Foreground(lipgloss.Color("15"))
	}
	return style.Render(recommendation)
}

func Price(currency string, value float64) string {
	return fmt.Sprintf("%s%.2f", currency, value)
}

// Error renders a classified failure with a retry hint when one applies
func Error(query string, err error) string {
	code := analyze.Classify(err)
	msg := code.Message()
	hint := code.Retryable()
	var ce *analyze.ClassifiedError
	if errors.As(err, &ce) {
		msg, hint = ce.Message, ce.Retryable
	}

	out := errorStyle.Render(fmt.Sprintf("%s: %s", query, msg))
	if hint {
		out += "\n" + mutedStyle.Render("This is usually temporary. Run the command again to retry.")
	}
	return out
}

// Alerts renders the alert list
func Alerts(list []models.PriceAlert) string {
	if len(list) == 0 {
		return mutedStyle.Render("No price alerts set.")
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.ID, a.Symbol, a.Condition, fmt.Sprintf("%.2f", a.TargetPrice),
			fmt.Sprintf("%.2f", a.InitialPrice), a.Status, a.Created().Format(time.DateTime),
		})
	}
	return newTable("ID", "Symbol", "Condition", "Target", "Initial", "Status", "Created").Rows(rows...).String()
}

// History renders stored messages oldest first
func History(list []models.ChatMessage) string {
	if len(list) == 0 {
		return mutedStyle.Render("No analysis history.")
	}
	var sb strings.Builder
	for _, m := range list {
		ts := time.UnixMilli(m.Timestamp).Format(time.DateTime)
		switch {
		case m.Role == models.RoleUser:
			sb.WriteString(fmt.Sprintf("%s  %s %s\n", mutedStyle.Render(ts), titleStyle.Render(">"), m.Content))
		case m.Data != nil:
			sb.WriteString(fmt.Sprintf("%s    %s %s %s\n", mutedStyle.Render(ts), m.Data.Symbol, Badge(m.Data.Signal.Recommendation), m.Content))
		default:
			sb.WriteString(fmt.Sprintf("%s    %s\n", mutedStyle.Render(ts), m.Content))
		}
	}
	return sb.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

func metricsTable(m models.KeyMetrics) string {
	rows := [][]string{
		{"P/E", m.PERatio, "Market cap", m.MarketCap},
		{"EPS growth", m.EPSGrowth, "Profit margin", m.ProfitMargin},
		{"ROE", m.ROE, "RSI", m.RSI},
		{"Trend", m.ShortTermTrend, "Dividend yield", m.DividendYield},
	}
	if m.DebtToEquity != "" {
		rows = append(rows, []string{"Debt/Equity", m.DebtToEquity, "", ""})
	}
	return table.New().Border(lipgloss.HiddenBorder()).Rows(rows...).String()
}

func scenarioTable(currency string, scenarios []models.Scenario) string {
	rows := make([][]string, 0, len(scenarios))
	for _, s := range scenarios {
		rows = append(rows, []string{s.CaseName, s.PriceRange, Price(currency, s.TargetPrice), s.Probability, s.Description})
	}
	return newTable("Case", "Range", "Target", "Probability", "Outlook").Rows(rows...).String()
}

func forecastTable(currency string, forecasts map[string][]models.Scenario) string {
	rows := make([][]string, 0, len(models.Horizons))
	for _, h := range models.Horizons {
		list := forecasts[h]
		if len(list) == 0 {
			continue
		}
		row := []string{h}
		for _, name := range []string{models.CaseBear, models.CaseBase, models.CaseBull} {
			cell := "-"
			for _, s := range list {
				if s.CaseName == name {
					cell = Price(currency, s.TargetPrice)
					break
				}
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return ""
	}
	return newTable("Horizon", "Bear", "Base", "Bull").Rows(rows...).String()
}

func peerTable(currency string, peers []models.PeerRecommendation) string {
	rows := make([][]string, 0, len(peers))
	for _, p := range peers {
		rows = append(rows, []string{p.Symbol, p.Name, p.Action, Price(currency, p.TargetPrice), p.Metrics.PERatio, p.Rationale})
	}
	return newTable("Symbol", "Name", "Action", "Target", "P/E", "Rationale").Rows(rows...).String()
}
