package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/rodaine/table"

	"github.com/dmagro/eth-wallet-rpc/internal/metrics"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// RenderStats prints per-method call metrics and, when any call failed, an
// error breakdown by kind.
func RenderStats(w io.Writer, methods []*metrics.MethodMetrics) {
	fmt.Fprintln(w, bold("RPC Calls"))
	if len(methods) == 0 {
		fmt.Fprintln(w, dim("No calls recorded."))
		return
	}

	tbl := table.New("Method", "Status", "Calls", "Success", "avg", "p50", "p95", "max")
	tbl.WithHeaderFormatter(headerFmt).WithWriter(w)
	failures := 0
	for _, m := range methods {
		failures += m.Failures
		tbl.AddRow(
			m.Method,
			colorStatus(m.Status),
			m.TotalCalls,
			colorSuccessRate(m.SuccessRate),
			colorLatency(m.Latency.Avg),
			colorLatency(m.Latency.P50),
			colorLatency(m.Latency.P95),
			colorLatency(m.Latency.Max),
		)
	}
	tbl.Print()
	fmt.Fprintln(w)

	if failures == 0 {
		fmt.Fprintln(w, green("No errors recorded."))
		return
	}

	fmt.Fprintln(w, bold("Errors"))
	errTbl := table.New("Method", "Kind", "Count", "Last error")
	errTbl.WithHeaderFormatter(headerFmt).WithWriter(w)
	for _, m := range methods {
		for _, kind := range sortedKinds(m.Errors) {
			last := ""
			if m.LastError != nil && rpc.KindOf(m.LastError) == kind {
				last = m.LastError.Error()
			}
			errTbl.AddRow(m.Method, kind.String(), colorCount(m.Errors[kind]), last)
		}
	}
	errTbl.Print()
}

func sortedKinds(counts map[rpc.ErrorKind]int) []rpc.ErrorKind {
	kinds := make([]rpc.ErrorKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// StatsJSON is the machine readable form of one method's metrics.
type StatsJSON struct {
	Method      string         `json:"method"`
	Status      string         `json:"status"`
	Calls       int            `json:"calls"`
	SuccessRate float64        `json:"success_rate"`
	LatencyMs   LatencyJSON    `json:"latency_ms"`
	Errors      map[string]int `json:"errors,omitempty"`
}

type LatencyJSON struct {
	Avg int64 `json:"avg"`
	P50 int64 `json:"p50"`
	P95 int64 `json:"p95"`
	P99 int64 `json:"p99"`
	Max int64 `json:"max"`
}

func NewStatsJSON(methods []*metrics.MethodMetrics) []StatsJSON {
	out := make([]StatsJSON, 0, len(methods))
	for _, m := range methods {
		s := StatsJSON{
			Method:      m.Method,
			Status:      string(m.Status),
			Calls:       m.TotalCalls,
			SuccessRate: m.SuccessRate,
			LatencyMs: LatencyJSON{
				Avg: m.Latency.Avg.Milliseconds(),
				P50: m.Latency.P50.Milliseconds(),
				P95: m.Latency.P95.Milliseconds(),
				P99: m.Latency.P99.Milliseconds(),
				Max: m.Latency.Max.Milliseconds(),
			},
		}
		if len(m.Errors) > 0 {
			s.Errors = make(map[string]int, len(m.Errors))
			for k, n := range m.Errors {
				s.Errors[k.String()] = n
			}
		}
		out = append(out, s)
	}
	return out
}
