package analyze

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Alias1177/stockgpt/models"
)

// validator caches struct metadata and is safe for concurrent use
var validate = validator.New()

var errMissingFields = errors.New("data missing critical fields (symbol, signal, sections)")

// validateTree re-checks the repaired tree before it is typed
func validateTree(data map[string]any) error {
	if s, ok := data["symbol"].(string); !ok || strings.TrimSpace(s) == "" {
		return Tag(CodeSchemaInvalid, fmt.Errorf("%w: symbol", errMissingFields))
	}
	if s, ok := data["summary"].(string); !ok || strings.TrimSpace(s) == "" {
		return Tag(CodeSchemaInvalid, fmt.Errorf("%w: summary", errMissingFields))
	}
	if _, ok := data["signal"].(map[string]any); !ok {
		return Tag(CodeSchemaInvalid, fmt.Errorf("%w: signal", errMissingFields))
	}
	sections, _ := data["sections"].([]any)
	scenarios, _ := data["scenarios"].([]any)
	if len(sections) == 0 && len(scenarios) == 0 {
		return Tag(CodeSchemaInvalid, fmt.Errorf("%w: sections and scenarios are both empty", errMissingFields))
	}
	return nil
}

// checkResult validates the typed result against its struct tags
func checkResult(result *models.AnalysisResult) error {
	if err := validate.Struct(result); err != nil {
		return Tag(CodeSchemaInvalid, fmt.Errorf("invalid analysis: %w", err))
	}
	return nil
}

// toResult converts a repaired, validated tree into the typed result.
// Scalars of the wrong JSON type are coerced rather than rejected.
func toResult(data map[string]any) *models.AnalysisResult {
	return &models.AnalysisResult{
		Type:                str(data["type"]),
		Symbol:              str(data["symbol"]),
		CompanyName:         str(data["companyName"]),
		CurrentPrice:        num(data["currentPrice"]),
		Currency:            str(data["currency"]),
		Summary:             str(data["summary"]),
		Sections:            toSections(data["sections"]),
		Scenarios:           toScenarios(data["scenarios"]),
		Forecasts:           toForecasts(data["forecasts"]),
		Signal:              toSignal(data["signal"]),
		Metrics:             toMetrics(data["metrics"]),
		PortfolioAllocation: toAllocation(data["portfolioAllocation"]),
		Recommendations:     toPeers(data["recommendations"]),
		News:                toNews(data["news"]),
	}
}

func toSections(v any) []models.Section {
	list, _ := v.([]any)
	out := make([]models.Section, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		out = append(out, models.Section{
			Title:   str(m["title"]),
			Content: str(m["content"]),
		})
	}
	return out
}

func toScenarios(v any) []models.Scenario {
	list, _ := v.([]any)
	out := make([]models.Scenario, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		out = append(out, models.Scenario{
			CaseName:    str(m["caseName"]),
			PriceRange:  str(m["priceRange"]),
			Probability: str(m["probability"]),
			Description: str(m["description"]),
			TargetPrice: num(m["targetPrice"]),
		})
	}
	return out
}

func toForecasts(v any) map[string][]models.Scenario {
	m, _ := v.(map[string]any)
	out := make(map[string][]models.Scenario, len(m))
	for horizon, list := range m {
		out[horizon] = toScenarios(list)
	}
	return out
}

func toSignal(v any) models.Signal {
	m, _ := v.(map[string]any)
	return models.Signal{
		Recommendation:  str(m["recommendation"]),
		ConfidenceScore: int(math.Round(num(m["confidenceScore"]))),
		Rationale:       str(m["rationale"]),
	}
}

func toMetrics(v any) models.KeyMetrics {
	m, _ := v.(map[string]any)
	return models.KeyMetrics{
		PERatio:        str(m["peRatio"]),
		MarketCap:      str(m["marketCap"]),
		EPSGrowth:      str(m["epsGrowth"]),
		ProfitMargin:   str(m["profitMargin"]),
		ROE:            str(m["roe"]),
		RSI:            str(m["rsi"]),
		ShortTermTrend: str(m["shortTermTrend"]),
		DividendYield:  str(m["dividendYield"]),
		DebtToEquity:   str(m["debtToEquity"]),
	}
}

func toAllocation(v any) []models.AllocationSlice {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]models.AllocationSlice, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		out = append(out, models.AllocationSlice{
			Asset:      str(m["asset"]),
			Percentage: num(m["percentage"]),
		})
	}
	return out
}

func toPeers(v any) []models.PeerRecommendation {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]models.PeerRecommendation, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		out = append(out, models.PeerRecommendation{
			Symbol:      str(m["symbol"]),
			Name:        str(m["name"]),
			Action:      str(m["action"]),
			TargetPrice: num(m["targetPrice"]),
			Rationale:   str(m["rationale"]),
			Metrics:     toMetrics(m["metrics"]),
		})
	}
	return out
}

func toNews(v any) []models.NewsArticle {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]models.NewsArticle, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		out = append(out, models.NewsArticle{
			Title:     str(m["title"]),
			Source:    str(m["source"]),
			URL:       str(m["url"]),
			Published: str(m["published"]),
			Summary:   str(m["summary"]),
			Sentiment: normalizeSentiment(str(m["sentiment"])),
		})
	}
	return out
}

func normalizeSentiment(s string) string {
	for _, known := range []string{"Positive", "Negative", "Neutral"} {
		if strings.EqualFold(strings.TrimSpace(s), known) {
			return known
		}
	}
	return s
}

func str(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func num(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		p, _ := parsePrice(val)
		return p
	}
	return 0
}
