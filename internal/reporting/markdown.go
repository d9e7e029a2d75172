package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Token Sale Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Events: %d | Buyers: %d\n\n", r.EventCount, r.Summary.BuyerCount))

	// Sale Summary
	sb.WriteString("## Sale Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Ended | %s |\n", yesNo(r.Summary.Ended)))
	sb.WriteString(fmt.Sprintf("| Soft Cap Reached | %s |\n", yesNo(r.Summary.SoftCapReached)))
	sb.WriteString(fmt.Sprintf("| Paused | %s |\n", yesNo(r.Summary.Paused)))
	sb.WriteString(fmt.Sprintf("| Soft Cap | %d |\n", r.Summary.SoftCap))
	sb.WriteString(fmt.Sprintf("| Min Buy | %d |\n", r.Summary.MinBuy))
	sb.WriteString(fmt.Sprintf("| Max Per Wallet | %d |\n", r.Summary.MaxPerWallet))
	sb.WriteString(fmt.Sprintf("| Total Raised | %d |\n", r.Summary.TotalRaised))
	sb.WriteString(fmt.Sprintf("| Total Tokens Sold | %d |\n", r.Summary.TotalTokensSold))
	sb.WriteString(fmt.Sprintf("| Total Escrowed | %d |\n", r.Summary.TotalEscrowed))
	sb.WriteString(fmt.Sprintf("| Held Balance | %d |\n", r.Summary.HeldBalance))
	sb.WriteString(fmt.Sprintf("| Buyer Count | %d |\n", r.Summary.BuyerCount))
	sb.WriteString("\n")

	// Phases
	sb.WriteString("## Phases\n\n")
	if len(r.Phases) > 0 {
		sb.WriteString("| Index | Unit Price | Supply | Sold | Remaining | Window Start (ms) | Window End (ms) |\n")
		sb.WriteString("|-------|-----------|--------|------|-----------|-------------------|------------------|\n")
		for _, p := range r.Phases {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d | %d | %d |\n",
				p.Index, p.UnitPrice, p.Supply, p.Sold, p.Remaining,
				p.WindowStart, p.WindowEnd))
		}
	} else {
		sb.WriteString("No phases registered.\n")
	}
	sb.WriteString("\n")

	// Activity
	sb.WriteString("## Activity\n\n")
	if len(r.Activity) > 0 {
		sb.WriteString("| Kind | Count | Base Total | Token Total |\n")
		sb.WriteString("|------|-------|-----------|-------------|\n")
		for _, a := range r.Activity {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d |\n",
				a.Kind, a.Count, a.BaseTotal, a.TokenTotal))
		}
	} else {
		sb.WriteString("No activity recorded.\n")
	}
	sb.WriteString("\n")

	// Buyers
	sb.WriteString("## Buyers\n\n")
	if len(r.Buyers) > 0 {
		sb.WriteString("| Address | Purchases | Contributed | Tokens Bought | Tokens Claimed | Refunded |\n")
		sb.WriteString("|---------|-----------|-------------|---------------|----------------|----------|\n")
		for _, b := range r.Buyers {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d |\n",
				b.Address, b.Purchases, b.Contributed, b.TokensBought,
				b.TokensClaimed, b.Refunded))
		}
	} else {
		sb.WriteString("No buyers recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
