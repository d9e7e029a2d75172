package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders buyer rows as CSV string.
func RenderCSV(buyers []BuyerRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("address,purchases,contributed,tokens_bought,tokens_claimed,refunded\n")

	// Rows
	for _, b := range buyers {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%d\n",
			b.Address,
			b.Purchases,
			b.Contributed,
			b.TokensBought,
			b.TokensClaimed,
			b.Refunded,
		))
	}

	return sb.String()
}
