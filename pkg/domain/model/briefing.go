package model

// ProductSales holds per-product aggregates for the top-product ranking
type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

// Briefing holds the daily aggregates assembled from a window of orders
// and the product catalog
type Briefing struct {
	StoreName    string         `json:"store_name"`
	OrderCount   int            `json:"order_count"`
	Revenue      int64          `json:"revenue"`
	Cost         int64          `json:"cost"`
	Profit       int64          `json:"profit"`
	TrendPercent float64        `json:"trend_percent"`
	LowStock     []Product      `json:"low_stock,omitempty"`
	TopProducts  []ProductSales `json:"top_products,omitempty"`
}
