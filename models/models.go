package models

// Recommendation values accepted on a Signal
const (
	RecommendationStrongBuy  = "STRONG BUY"
	RecommendationBuy        = "BUY"
	RecommendationHold       = "HOLD"
	RecommendationSell       = "SELL"
	RecommendationStrongSell = "STRONG SELL"
)

// Scenario case names
const (
	CaseBull = "Bull"
	CaseBase = "Base"
	CaseBear = "Bear"
)

// Forecast horizons
const (
	Horizon1M  = "1M"
	Horizon6M  = "6M"
	Horizon12M = "12M"
)

// Horizons lists forecast horizons in display order
var Horizons = []string{Horizon1M, Horizon6M, Horizon12M}

// Recommendations lists every recommendation a Signal may carry
var Recommendations = []string{
	RecommendationStrongBuy,
	RecommendationBuy,
	RecommendationHold,
	RecommendationSell,
	RecommendationStrongSell,
}

// AnalysisRequest is a single user query
type AnalysisRequest struct {
	Query string `json:"query"`
}

// AnalysisResult is the validated market analysis handed to the presentation layer.
// It is built fresh per request and never mutated afterwards.
type AnalysisResult struct {
	Type                string                `json:"type"`
	Symbol              string                `json:"symbol" validate:"required"`
	CompanyName         string                `json:"companyName" validate:"required"`
	CurrentPrice        float64               `json:"currentPrice" validate:"gte=0"`
	Currency            string                `json:"currency"`
	Summary             string                `json:"summary" validate:"required"`
	Sections            []Section             `json:"sections"`
	Scenarios           []Scenario            `json:"scenarios" validate:"dive"`
	Forecasts           map[string][]Scenario `json:"forecasts" validate:"dive,dive"`
	Signal              Signal                `json:"signal"`
	Metrics             KeyMetrics            `json:"metrics"`
	PortfolioAllocation []AllocationSlice     `json:"portfolioAllocation,omitempty"`
	Recommendations     []PeerRecommendation  `json:"recommendations,omitempty"`
	News                []NewsArticle         `json:"news,omitempty"`
	Grounding           *Grounding            `json:"groundingMetadata,omitempty"`
}

// Section is a titled block of Markdown-like narrative
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Scenario is one Bull/Base/Bear price case
type Scenario struct {
	CaseName    string  `json:"caseName" validate:"required"`
	PriceRange  string  `json:"priceRange" validate:"required"`
	Probability string  `json:"probability"`
	Description string  `json:"description"`
	TargetPrice float64 `json:"targetPrice"`
}

// Signal is the trade recommendation with its confidence
type Signal struct {
	Recommendation  string `json:"recommendation" validate:"oneof='STRONG BUY' BUY HOLD SELL 'STRONG SELL'"`
	ConfidenceScore int    `json:"confidenceScore" validate:"gte=0,lte=100"`
	Rationale       string `json:"rationale"`
}

// KeyMetrics holds display strings; "N/A" is a legal value for any of them
type KeyMetrics struct {
	PERatio        string `json:"peRatio"`
	MarketCap      string `json:"marketCap"`
	EPSGrowth      string `json:"epsGrowth"`
	ProfitMargin   string `json:"profitMargin"`
	ROE            string `json:"roe"`
	RSI            string `json:"rsi"`
	ShortTermTrend string `json:"shortTermTrend,omitempty"`
	DividendYield  string `json:"dividendYield,omitempty"`
	DebtToEquity   string `json:"debtToEquity,omitempty"`
}

// PeerRecommendation is a benchmark peer with its own metrics
type PeerRecommendation struct {
	Symbol      string     `json:"symbol"`
	Name        string     `json:"name"`
	Action      string     `json:"action"`
	TargetPrice float64    `json:"targetPrice,omitempty"`
	Rationale   string     `json:"rationale"`
	Metrics     KeyMetrics `json:"metrics"`
}

// NewsArticle is a grounded headline with its sentiment
type NewsArticle struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
}

// AllocationSlice is one entry of a suggested portfolio split
type AllocationSlice struct {
	Asset      string  `json:"asset"`
	Percentage float64 `json:"percentage"`
}

// Grounding carries the search citations attached by the model
type Grounding struct {
	WebSearchQueries []string          `json:"webSearchQueries,omitempty"`
	Sources          []GroundingSource `json:"sources,omitempty"`
}

// GroundingSource is a single cited web page
type GroundingSource struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri"`
}
