package output

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// FormatNumber adds thousand separators: 24277510 -> "24,277,510".
func FormatNumber(n *big.Int) string {
	if n == nil {
		return "—"
	}
	s := n.String()
	if n.Sign() < 0 {
		return "-" + addThousandSeparators(s[1:])
	}
	return addThousandSeparators(s)
}

func addThousandSeparators(s string) string {
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

// FormatGwei renders wei as gwei with two decimals.
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "—"
	}
	gwei := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9))
	f, _ := gwei.Float64()
	return fmt.Sprintf("%.2f gwei", f)
}

// FormatTokenAmount places the decimal point of a raw integer amount and
// adds thousand separators to the whole part.
func FormatTokenAmount(raw *big.Int, decimals int, symbol string) string {
	if raw == nil || raw.Sign() == 0 {
		if decimals == 0 {
			return "0 " + symbol
		}
		return fmt.Sprintf("0.%s %s", strings.Repeat("0", decimals), symbol)
	}
	rawStr := raw.String()
	for len(rawStr) <= decimals {
		rawStr = "0" + rawStr
	}
	whole := addThousandSeparators(rawStr[:len(rawStr)-decimals])
	if decimals == 0 {
		return fmt.Sprintf("%s %s", whole, symbol)
	}
	return fmt.Sprintf("%s.%s %s", whole, rawStr[len(rawStr)-decimals:], symbol)
}

// FormatEther renders a wei balance in ether.
func FormatEther(wei *big.Int) string {
	return FormatTokenAmount(wei, 18, "ETH")
}

// FormatTimestamp renders t in UTC with a relative suffix.
func FormatTimestamp(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	ago := now.Sub(t)
	var agoStr string
	switch {
	case ago < time.Minute:
		agoStr = fmt.Sprintf("%ds ago", int(ago.Seconds()))
	case ago < time.Hour:
		agoStr = fmt.Sprintf("%dm ago", int(ago.Minutes()))
	case ago < 24*time.Hour:
		agoStr = fmt.Sprintf("%dh ago", int(ago.Hours()))
	default:
		agoStr = fmt.Sprintf("%dd ago", int(ago.Hours()/24))
	}
	return fmt.Sprintf("%s (%s)", t.UTC().Format("2006-01-02 15:04:05 UTC"), agoStr)
}

func formatGasPercent(used, limit *big.Int) string {
	if used == nil || limit == nil || limit.Sign() == 0 {
		return "—"
	}
	pct := new(big.Float).Quo(new(big.Float).SetInt(used), new(big.Float).SetInt(limit))
	f, _ := pct.Float64()
	return fmt.Sprintf("%.1f%%", f*100)
}

func truncateHash(h string) string {
	if len(h) <= 18 {
		return h
	}
	return h[:10] + "…" + h[len(h)-6:]
}
