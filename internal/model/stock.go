package model

// StockRecord is one row of the stock metrics table: a ticker with its
// sector plus the numeric features the clustering step consumes.
type StockRecord struct {
	Ticker        string  `csv:"Ticker" json:"ticker"`
	Sector        string  `csv:"Sector" json:"sector"`
	MarketCap     float64 `csv:"Market Cap" json:"market_cap"`
	PERatio       float64 `csv:"P/E Ratio" json:"pe_ratio"`
	AverageReturn float64 `csv:"Average Return" json:"average_return"`
	Volatility    float64 `csv:"Volatility" json:"volatility"`
}

// ClusteredStock is a StockRecord augmented with its cluster label.
type ClusteredStock struct {
	StockRecord
	Cluster int `csv:"Cluster" json:"cluster"`
}

// ClusteringResult summarizes a clustering run for persistence and logging.
type ClusteringResult struct {
	Stocks     int     `json:"stocks"`
	Clusters   int     `json:"clusters"`
	Silhouette float64 `json:"silhouette"`
	OutputPath string  `json:"output_path"`
}

// Recommendation is a single diversification candidate: a stock drawn from a
// cluster the user does not already hold.
type Recommendation struct {
	Ticker        string  `csv:"Ticker" json:"ticker"`
	Cluster       int     `csv:"Cluster" json:"cluster"`
	AverageReturn float64 `csv:"Average Return" json:"average_return"`
}

// SentimentScore is the per-stock risk score from the sentiment variant:
// public-comment sentiment combined with the stock's market beta.
type SentimentScore struct {
	Ticker       string  `json:"ticker"`
	Beta         float64 `json:"beta"`
	MeanPolarity float64 `json:"mean_polarity"`
	Items        int     `json:"items"`
	Score        float64 `json:"score"`
	BetaOnly     bool    `json:"beta_only"`
}
