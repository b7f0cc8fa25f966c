package output

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/metrics"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
	"github.com/dmagro/eth-wallet-rpc/internal/stats"
)

func init() {
	DisableColor()
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   *big.Int
		want string
	}{
		{nil, "—"},
		{big.NewInt(0), "0"},
		{big.NewInt(999), "999"},
		{big.NewInt(1000), "1,000"},
		{big.NewInt(24277510), "24,277,510"},
		{big.NewInt(-1234567), "-1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in))
	}
}

func TestFormatTokenAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      *big.Int
		decimals int
		want     string
	}{
		{"zero", big.NewInt(0), 6, "0.000000 USDC"},
		{"fraction", big.NewInt(1500000), 6, "1.500000 USDC"},
		{"small", big.NewInt(42), 6, "0.000042 USDC"},
		{"large", big.NewInt(1234567890000), 6, "1,234,567.890000 USDC"},
		{"no decimals", big.NewInt(1234), 0, "1,234 USDC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTokenAmount(tt.raw, tt.decimals, "USDC"))
		})
	}
}

func TestFormatEtherAndGwei(t *testing.T) {
	oneEther, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.Equal(t, "1.000000000000000000 ETH", FormatEther(oneEther))
	assert.Equal(t, "1.50 gwei", FormatGwei(big.NewInt(1500000000)))
	assert.Equal(t, "—", FormatGwei(nil))
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "30s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		assert.Contains(t, FormatTimestamp(now.Add(-tt.ago), now), tt.want)
	}
	assert.Equal(t, "—", FormatTimestamp(time.Time{}, now))
}

func TestPadRightIgnoresColorCodes(t *testing.T) {
	colored := "\x1b[32mok\x1b[0m"
	assert.Equal(t, colored+"   ", padRight(colored, 5))
	assert.Equal(t, "toolong", padRight("toolong", 3))
}

func TestGasPercentAndHash(t *testing.T) {
	assert.Equal(t, "50.0%", formatGasPercent(big.NewInt(15), big.NewInt(30)))
	assert.Equal(t, "—", formatGasPercent(big.NewInt(1), big.NewInt(0)))
	assert.Equal(t, "0x12345678…abcdef", truncateHash("0x1234567890000000000000000000abcdef"))
	assert.Equal(t, "0x1234", truncateHash("0x1234"))
}

func testBlock() *format.Block {
	hash := common.HexToHash("0xabc")
	return &format.Block{
		Number:        big.NewInt(1234567),
		Hash:          &hash,
		ParentHash:    common.HexToHash("0xdef"),
		Miner:         common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		GasLimit:      big.NewInt(30000000),
		GasUsed:       big.NewInt(15000000),
		BaseFeePerGas: big.NewInt(2000000000),
		Timestamp:     time.Unix(1700000000, 0),
		TxHashes:      []common.Hash{common.HexToHash("0x1"), common.HexToHash("0x2")},
	}
}

func TestRenderBlock(t *testing.T) {
	var buf bytes.Buffer
	RenderBlock(&buf, &BlockDisplay{Block: testBlock(), Latency: 42 * time.Millisecond, Now: time.Unix(1700000060, 0)})
	out := buf.String()
	assert.Contains(t, out, "Block #1,234,567")
	assert.Contains(t, out, "15,000,000 / 30,000,000 (50.0%)")
	assert.Contains(t, out, "2.00 gwei")
	assert.Contains(t, out, "Transactions:")
	assert.Contains(t, out, "1m ago")
	assert.Contains(t, out, "42ms")
}

func TestBlockJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewBlockJSON(&BlockDisplay{Block: testBlock(), Latency: time.Second})))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "1234567", got["number"])
	assert.Equal(t, float64(2), got["txCount"])
	assert.Equal(t, float64(1000), got["latencyMs"])
	assert.Equal(t, "2000000000", got["baseFeePerGas"])
}

func TestAccountRows(t *testing.T) {
	info := map[string]format.AccountInfo{
		"0xB0000000000000000000000000000000000000bb": {Name: "second"},
		"0xA0000000000000000000000000000000000000aa": {Name: "first"},
	}
	balances := map[string]*big.Int{
		"0xA0000000000000000000000000000000000000aa": big.NewInt(1),
		"0xC0000000000000000000000000000000000000cc": big.NewInt(2),
	}
	rows := AccountRows(info, balances, "0xB0000000000000000000000000000000000000bb")
	require.Len(t, rows, 3)
	assert.Equal(t, "first", rows[0].Name)
	assert.True(t, rows[1].Default)
	assert.Equal(t, "", rows[2].Name)
	assert.Equal(t, big.NewInt(2), rows[2].Balance)

	var buf bytes.Buffer
	RenderAccounts(&buf, rows)
	assert.Contains(t, buf.String(), "second")

	buf.Reset()
	RenderAccounts(&buf, nil)
	assert.Contains(t, buf.String(), "No accounts.")
}

func TestRenderRequests(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	reqs := []*format.SignerRequest{
		{ID: big.NewInt(1), SendTransaction: &format.Transaction{
			From: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			To:   &to, Value: big.NewInt(0), Gas: big.NewInt(21000),
		}},
		{ID: big.NewInt(2), Sign: &format.SignPayload{Address: to}},
	}
	var buf bytes.Buffer
	RenderRequests(&buf, reqs)
	out := buf.String()
	assert.Contains(t, out, "sendTransaction")
	assert.Contains(t, out, "21,000")
	assert.Contains(t, out, "sign")
}

func TestRenderStats(t *testing.T) {
	methods := []*metrics.MethodMetrics{
		{
			Method: "eth_call", Status: metrics.StatusDegraded, TotalCalls: 10, Failures: 2, SuccessRate: 80,
			Latency:   stats.Summary{Count: 10, Avg: 50 * time.Millisecond},
			Errors:    map[rpc.ErrorKind]int{rpc.KindTimeout: 2},
			LastError: rpc.Errorf(rpc.KindTimeout, "deadline"),
		},
		{Method: "eth_chainId", Status: metrics.StatusUp, TotalCalls: 3, SuccessRate: 100},
	}
	var buf bytes.Buffer
	RenderStats(&buf, methods)
	out := buf.String()
	assert.Contains(t, out, "eth_call")
	assert.Contains(t, out, "DEGRADED")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "deadline")

	js := NewStatsJSON(methods)
	require.Len(t, js, 2)
	assert.Equal(t, map[string]int{"timeout": 2}, js[0].Errors)
	assert.Equal(t, int64(50), js[0].LatencyMs.Avg)
	assert.Nil(t, js[1].Errors)

	buf.Reset()
	RenderStats(&buf, nil)
	assert.Contains(t, buf.String(), "No calls recorded.")
}

func TestFormatValue(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	assert.Equal(t, "1,000", FormatValue(big.NewInt(1000)))
	assert.Equal(t, addr.Hex(), FormatValue(addr))
	assert.Equal(t, "0x0102", FormatValue([]byte{1, 2}))
	assert.Equal(t, "[1, true]", FormatValue([]interface{}{big.NewInt(1), true}))
	assert.Equal(t, "null", FormatValue(nil))

	var buf bytes.Buffer
	RenderCallResult(&buf, "0xc0ffee", "balanceOf", big.NewInt(5))
	assert.Contains(t, buf.String(), "balanceOf")
	assert.Contains(t, buf.String(), "5")

	buf.Reset()
	RenderParams(&buf, "Transfer", map[string]interface{}{"value": big.NewInt(7), "from": addr})
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("from:")), bytes.Index(buf.Bytes(), []byte("value:")))
	assert.Contains(t, out, "7")
}

func TestFeedKeepsNewestEvents(t *testing.T) {
	f := NewFeed(2)
	f.Add("heads", "one", SeverityInfo)
	f.Add("heads", "two", SeverityWarning)
	f.Add("logs", "three", SeverityError)

	events := f.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "three", events[0].Message)
	assert.Equal(t, "two", events[1].Message)

	var buf bytes.Buffer
	RenderFeedEvent(&buf, events[0])
	assert.Contains(t, buf.String(), "logs")
	assert.Contains(t, buf.String(), "three")

	assert.Equal(t, 20, NewFeed(0).maxEvents)
}

func TestWriteJSONError(t *testing.T) {
	err := WriteJSON(&bytes.Buffer{}, map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}
