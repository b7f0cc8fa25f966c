package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
)

// BlockDisplay holds a fetched block and how long the fetch took.
type BlockDisplay struct {
	Block   *format.Block
	Latency time.Duration
	Now     time.Time
}

// RenderBlock prints the block summary.
func RenderBlock(w io.Writer, bd *BlockDisplay) {
	b := bd.Block
	now := bd.Now
	if now.IsZero() {
		now = time.Now()
	}
	hash := "pending"
	if b.Hash != nil {
		hash = b.Hash.Hex()
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", bold("Block #"+FormatNumber(b.Number)))
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s %s\n", padRight(cyan("Hash:"), 15), hash)
	fmt.Fprintf(w, "  %s %s\n", padRight(cyan("Parent:"), 15), b.ParentHash.Hex())
	fmt.Fprintf(w, "  %s %s\n", padRight(cyan("Timestamp:"), 15), FormatTimestamp(b.Timestamp, now))
	fmt.Fprintf(w, "  %s %s\n", padRight(cyan("Miner:"), 15), b.Miner.Hex())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s / %s (%s)\n", padRight(cyan("Gas Used:"), 15),
		FormatNumber(b.GasUsed), FormatNumber(b.GasLimit), formatGasPercent(b.GasUsed, b.GasLimit))
	fmt.Fprintf(w, "  %s %s\n", padRight(cyan("Base Fee:"), 15), FormatGwei(b.BaseFeePerGas))
	fmt.Fprintf(w, "  %s %d\n", padRight(cyan("Transactions:"), 15), b.TxCount())
	if bd.Latency > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s %s\n", padRight(cyan("Fetched in:"), 15), colorLatency(bd.Latency))
	}
	fmt.Fprintln(w)
}

// BlockJSON is the machine readable block summary.
type BlockJSON struct {
	Number        string `json:"number"`
	Hash          string `json:"hash,omitempty"`
	ParentHash    string `json:"parentHash"`
	Timestamp     int64  `json:"timestamp"`
	TimestampISO  string `json:"timestampISO"`
	Miner         string `json:"miner"`
	GasUsed       string `json:"gasUsed"`
	GasLimit      string `json:"gasLimit"`
	BaseFeePerGas string `json:"baseFeePerGas,omitempty"`
	TxCount       int    `json:"txCount"`
	LatencyMs     int64  `json:"latencyMs"`
}

func NewBlockJSON(bd *BlockDisplay) BlockJSON {
	b := bd.Block
	out := BlockJSON{
		Number:       bigString(b.Number),
		ParentHash:   b.ParentHash.Hex(),
		Timestamp:    b.Timestamp.Unix(),
		TimestampISO: b.Timestamp.UTC().Format(time.RFC3339),
		Miner:        b.Miner.Hex(),
		GasUsed:      bigString(b.GasUsed),
		GasLimit:     bigString(b.GasLimit),
		TxCount:      b.TxCount(),
		LatencyMs:    bd.Latency.Milliseconds(),
	}
	if b.Hash != nil {
		out.Hash = b.Hash.Hex()
	}
	if b.BaseFeePerGas != nil {
		out.BaseFeePerGas = b.BaseFeePerGas.String()
	}
	return out
}
