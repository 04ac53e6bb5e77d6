package ai

import (
	"encoding/json"
	"fmt"
)

const OrderSummarySystemPrompt = `You are a friendly assistant for a home-cooked food delivery service.
Summarise a customer's order history for the customer themselves. Mention:
- What they order most and which categories they favour
- How much they have spent overall
- One suggestion for something to try next, drawn from their favourite categories
Keep it to one short paragraph and never invent orders that are not in the data.`

func formatOrderSummaryPrompt(customer string, stats OrderStats, history any) string {
	statsJSON, _ := json.MarshalIndent(stats, "", "  ")
	historyJSON, _ := json.MarshalIndent(history, "", "  ")
	if customer == "" {
		customer = "this customer"
	}
	return fmt.Sprintf(`Summarise the order history of %s.

Totals:
%s

Order lines, oldest first:
%s`, customer, string(statsJSON), string(historyJSON))
}
