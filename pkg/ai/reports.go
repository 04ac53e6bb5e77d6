package ai

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

// AIReportResponse represents the structure of AI-generated reports
type AIReportResponse struct {
	Status      string     `json:"status"`
	Data        ReportData `json:"data"`
	GeneratedAt time.Time  `json:"generated_at"`
	AIEnabled   bool       `json:"ai_enabled"`
}

type ReportData struct {
	RawData    any    `json:"raw_data"`
	Stats      any    `json:"stats,omitempty"`
	AIInsights string `json:"ai_insights,omitempty"`
	Summary    string `json:"summary"`
	Error      string `json:"error,omitempty"`
}

type CategorySpend struct {
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Spent    float64 `json:"spent"`
}

// OrderStats aggregates a history at snapshot prices.
type OrderStats struct {
	Orders     int             `json:"orders"`
	Items      int             `json:"items"`
	TotalSpent float64         `json:"total_spent"`
	Categories []CategorySpend `json:"categories"`
}

// ComputeOrderStats groups entries by category, highest spend first.
func ComputeOrderStats(entries []models.OrderHistoryEntry) OrderStats {
	stats := OrderStats{Categories: []CategorySpend{}}
	orders := make(map[bson.ObjectID]struct{})
	byCategory := make(map[string]*CategorySpend)

	for _, e := range entries {
		orders[e.OrderID] = struct{}{}
		spent := e.Price * float64(e.Quantity)
		stats.Items += e.Quantity
		stats.TotalSpent += spent

		cat, ok := byCategory[e.Category]
		if !ok {
			cat = &CategorySpend{Category: e.Category}
			byCategory[e.Category] = cat
		}
		cat.Quantity += e.Quantity
		cat.Spent += spent
	}
	stats.Orders = len(orders)

	for _, cat := range byCategory {
		stats.Categories = append(stats.Categories, *cat)
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		if stats.Categories[i].Spent != stats.Categories[j].Spent {
			return stats.Categories[i].Spent > stats.Categories[j].Spent
		}
		return stats.Categories[i].Category < stats.Categories[j].Category
	})
	return stats
}

// SummarizeOrders always returns the raw history and stats. The AI paragraph
// is added when the client is enabled; a model failure is reported in
// Data.Error rather than failing the report.
func (c *Client) SummarizeOrders(ctx context.Context, entries []models.OrderHistoryEntry) *AIReportResponse {
	stats := ComputeOrderStats(entries)
	response := &AIReportResponse{
		Status:      "success",
		GeneratedAt: time.Now(),
		AIEnabled:   c.Enabled(),
		Data: ReportData{
			RawData: entries,
			Stats:   stats,
			Summary: "Order history retrieved successfully",
		},
	}

	if !c.Enabled() {
		response.Data.Summary = "Raw order history (AI insights unavailable)"
		return response
	}

	var customer string
	if len(entries) > 0 {
		customer = entries[0].Customer
	}
	userPrompt := formatOrderSummaryPrompt(customer, stats, entries)
	aiInsights, err := c.generateCompletion(ctx, OrderSummarySystemPrompt, userPrompt)
	if err != nil {
		c.log.Warn("AI order summary failed", zap.Error(err))
		response.Data.Error = "AI analysis failed: " + err.Error()
		return response
	}

	response.Data.AIInsights = aiInsights
	response.Data.Summary = "AI-generated order history summary"
	return response
}
