package output

import (
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/rodaine/table"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
)

func bigString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// AccountRow is one line of the accounts listing.
type AccountRow struct {
	Address string   `json:"address"`
	Name    string   `json:"name"`
	Balance *big.Int `json:"balance,omitempty"`
	Default bool     `json:"default"`
}

// AccountRows merges account info and balances, sorted by address.
func AccountRows(info map[string]format.AccountInfo, balances map[string]*big.Int, def string) []AccountRow {
	addrs := make(map[string]struct{}, len(info)+len(balances))
	for a := range info {
		addrs[a] = struct{}{}
	}
	for a := range balances {
		addrs[a] = struct{}{}
	}
	rows := make([]AccountRow, 0, len(addrs))
	for a := range addrs {
		rows = append(rows, AccountRow{Address: a, Name: info[a].Name, Balance: balances[a], Default: a == def})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Address < rows[j].Address })
	return rows
}

// RenderAccounts prints the accounts table.
func RenderAccounts(w io.Writer, rows []AccountRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, dim("No accounts."))
		return
	}
	tbl := table.New("", "Address", "Name", "Balance")
	tbl.WithHeaderFormatter(headerFmt).WithWriter(w)
	for _, r := range rows {
		marker := ""
		if r.Default {
			marker = green("*")
		}
		balance := dim("—")
		if r.Balance != nil {
			balance = FormatEther(r.Balance)
		}
		tbl.AddRow(marker, r.Address, r.Name, balance)
	}
	tbl.Print()
}

// RenderRequests prints the signer queue.
func RenderRequests(w io.Writer, reqs []*format.SignerRequest) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, dim("No pending requests."))
		return
	}
	tbl := table.New("ID", "Kind", "From", "To", "Value", "Gas")
	tbl.WithHeaderFormatter(headerFmt).WithWriter(w)
	for _, r := range reqs {
		id := bigString(r.ID)
		tx := r.SendTransaction
		kind := "sendTransaction"
		if tx == nil {
			tx = r.SignTransaction
			kind = "signTransaction"
		}
		switch {
		case tx != nil:
			to := "(create)"
			if tx.To != nil {
				to = tx.To.Hex()
			}
			tbl.AddRow(id, kind, tx.From.Hex(), to, FormatEther(tx.Value), FormatNumber(tx.Gas))
		case r.Sign != nil:
			tbl.AddRow(id, "sign", r.Sign.Address.Hex(), "", "", "")
		case r.Decrypt != nil:
			tbl.AddRow(id, "decrypt", r.Decrypt.Address.Hex(), "", "", "")
		default:
			tbl.AddRow(id, "unknown", "", "", "", "")
		}
	}
	tbl.Print()
}
