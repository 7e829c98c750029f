package analyze

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/Alias1177/stockgpt/models"
)

const (
	defaultSymbol    = "UNKNOWN"
	defaultSummary   = "No summary available."
	defaultCurrency  = "$"
	defaultRationale = "Insufficient data for signal generation."
	defaultScore     = 50
	notAvailable     = "N/A"
)

var priceToken = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?|\.\d+`)

// repair fills structural gaps in a decoded reply with neutral placeholders.
// It never invents prices or recommendations, edits data in place and is
// idempotent: repair(repair(x)) equals repair(x).
func repair(data map[string]any) map[string]any {
	data["type"] = "single"

	data["sections"] = objects(data["sections"])
	scenarios := cleanScenarios(data["scenarios"])
	data["scenarios"] = scenarios
	data["forecasts"] = repairForecasts(data["forecasts"], scenarios)
	data["signal"] = repairSignal(data["signal"])

	if _, ok := data["metrics"].(map[string]any); !ok {
		data["metrics"] = placeholderMetrics()
	}

	repairPeers(data)
	for _, key := range []string{"news", "portfolioAllocation"} {
		if list, ok := data[key].([]any); ok {
			data[key] = objects(list)
		} else {
			delete(data, key)
		}
	}

	repairIdentity(data)
	return data
}

// objects keeps only the object entries of a list; anything that is not a
// list becomes an empty one
func objects(v any) []any {
	list, _ := v.([]any)
	out := make([]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// cleanScenarios drops entries without a case name or price range and gives
// every survivor a numeric target price
func cleanScenarios(v any) []any {
	list, _ := v.([]any)
	out := make([]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok || !truthy(m["caseName"]) || !truthy(m["priceRange"]) {
			continue
		}

		s := make(map[string]any, len(m)+1)
		for k, val := range m {
			s[k] = val
		}
		if name, ok := m["caseName"].(string); ok {
			s["caseName"] = normalizeCaseName(name)
		}
		s["targetPrice"] = targetPrice(m)
		out = append(out, s)
	}
	return out
}

func targetPrice(scenario map[string]any) float64 {
	switch v := scenario["targetPrice"].(type) {
	case float64:
		return v
	case string:
		if p, ok := parsePrice(v); ok {
			return p
		}
	}
	if p, ok := parsePrice(str(scenario["priceRange"])); ok {
		return p
	}
	return 0
}

// parsePrice reads the first number in free text, e.g. 120 from "$120-$130"
func parsePrice(text string) (float64, bool) {
	token := priceToken.FindString(text)
	if token == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return p, true
}

func normalizeCaseName(name string) string {
	for _, known := range []string{models.CaseBull, models.CaseBase, models.CaseBear} {
		if strings.EqualFold(strings.TrimSpace(name), known) {
			return known
		}
	}
	return name
}

// repairForecasts cleans every horizon the model sent and replicates the
// top-level scenarios into each missing one
func repairForecasts(v any, scenarios []any) map[string]any {
	out := make(map[string]any, len(models.Horizons))
	if m, ok := v.(map[string]any); ok {
		for horizon, list := range m {
			if _, isList := list.([]any); isList {
				out[horizon] = cleanScenarios(list)
			}
		}
	}
	for _, horizon := range models.Horizons {
		if _, ok := out[horizon]; !ok {
			out[horizon] = scenarios
		}
	}
	return out
}

func repairSignal(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{
			"recommendation":  models.RecommendationHold,
			"confidenceScore": float64(defaultScore),
			"rationale":       defaultRationale,
		}
	}

	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	out["recommendation"] = normalizeRecommendation(m["recommendation"])
	out["confidenceScore"] = normalizeScore(m["confidenceScore"])
	if r, ok := m["rationale"].(string); !ok || strings.TrimSpace(r) == "" {
		out["rationale"] = defaultRationale
	}
	return out
}

// recommendationSynonyms maps common analyst wording onto the five signals
var recommendationSynonyms = map[string]string{
	"STRONG BUY":     models.RecommendationStrongBuy,
	"CONVICTION BUY": models.RecommendationStrongBuy,
	"BUY":            models.RecommendationBuy,
	"ACCUMULATE":     models.RecommendationBuy,
	"OUTPERFORM":     models.RecommendationBuy,
	"OVERWEIGHT":     models.RecommendationBuy,
	"ADD":            models.RecommendationBuy,
	"HOLD":           models.RecommendationHold,
	"NEUTRAL":        models.RecommendationHold,
	"MARKET PERFORM": models.RecommendationHold,
	"EQUAL WEIGHT":   models.RecommendationHold,
	"SELL":           models.RecommendationSell,
	"REDUCE":         models.RecommendationSell,
	"UNDERPERFORM":   models.RecommendationSell,
	"UNDERWEIGHT":    models.RecommendationSell,
	"STRONG SELL":    models.RecommendationStrongSell,
}

// normalizeRecommendation maps "strong_buy", "Strong Buy!", "Outperform" and
// friends onto the canonical spelling. Anything unrecognised becomes HOLD.
func normalizeRecommendation(v any) string {
	s, ok := v.(string)
	if !ok {
		return models.RecommendationHold
	}
	words := strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if rec, ok := recommendationSynonyms[strings.Join(words, " ")]; ok {
		return rec
	}
	return models.RecommendationHold
}

func normalizeScore(v any) float64 {
	var score float64
	switch val := v.(type) {
	case float64:
		score = val
	case string:
		p, ok := parsePrice(val)
		if !ok {
			return defaultScore
		}
		score = p
	default:
		return defaultScore
	}

	// a fraction such as 0.78 means 78
	if score > 0 && score < 1 {
		score *= 100
	}
	return math.Round(math.Max(0, math.Min(100, score)))
}

func placeholderMetrics() map[string]any {
	return map[string]any{
		"peRatio":        notAvailable,
		"marketCap":      notAvailable,
		"epsGrowth":      notAvailable,
		"profitMargin":   notAvailable,
		"roe":            notAvailable,
		"rsi":            "50",
		"shortTermTrend": "Neutral",
	}
}

func peerPlaceholderMetrics() map[string]any {
	return map[string]any{
		"peRatio":      notAvailable,
		"marketCap":    notAvailable,
		"epsGrowth":    notAvailable,
		"profitMargin": notAvailable,
		"roe":          notAvailable,
		"rsi":          notAvailable,
	}
}

func repairPeers(data map[string]any) {
	list, ok := data["recommendations"].([]any)
	if !ok {
		delete(data, "recommendations")
		return
	}

	out := make([]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		peer := make(map[string]any, len(m)+1)
		for k, val := range m {
			peer[k] = val
		}
		if _, ok := m["metrics"].(map[string]any); !ok {
			peer["metrics"] = peerPlaceholderMetrics()
		}
		out = append(out, peer)
	}
	data["recommendations"] = out
}

func repairIdentity(data map[string]any) {
	symbol := nonEmpty(data["symbol"], defaultSymbol)
	data["symbol"] = symbol
	data["summary"] = nonEmpty(data["summary"], defaultSummary)
	data["companyName"] = nonEmpty(data["companyName"], symbol)
	data["currency"] = nonEmpty(data["currency"], defaultCurrency)

	var price float64
	switch v := data["currentPrice"].(type) {
	case float64:
		price = v
	case string:
		price, _ = parsePrice(v)
	}
	data["currentPrice"] = math.Max(0, price)
}

func nonEmpty(v any, fallback string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return fallback
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case float64:
		return val != 0
	case bool:
		return val
	}
	return true
}
