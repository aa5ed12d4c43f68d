// Command vecjoin is a demo CLI exercising the join and scan packages end
// to end: it builds a pair of in-memory tables, runs a filtered scan
// (showing the index-pushdown rewrite firing when an index is available),
// joins the results, and renders the output as a table.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/wbrown/vecjoin/catalog"
	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/join"
	"github.com/wbrown/vecjoin/scan"
	"github.com/wbrown/vecjoin/txn"
	"github.com/wbrown/vecjoin/vector"
)

func main() {
	var rows int
	var threshold int64
	var useIndex bool
	var verbose bool

	flag.IntVar(&rows, "rows", 20, "number of synthetic customer/order rows to generate")
	flag.Int64Var(&threshold, "min-amount", 0, "only join orders with amount >= this value")
	flag.BoolVar(&useIndex, "index", true, "register an index on orders.amount and let pushdown use it")
	flag.BoolVar(&verbose, "verbose", false, "print scan/join diagnostics")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Demonstrates the nested-loop join operator and table-scan function.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	vector.Debug = verbose

	customers, orders := buildTables(rows)
	if useIndex {
		orders.AddIndex(catalog.NewSortedIndex(
			"orders_amount_idx",
			exec.ColumnRef{Index: 2, T: vector.TypeInt64}, // orders.amount
			func(a, b interface{}) bool { return a.(int64) < b.(int64) },
			amountKeys(orders),
			rowIDRange(orders.RowCount()),
		))
	}

	tx := txn.NewMemTxn(1)

	// orders schema: 0=id, 1=customer_id, 2=amount.
	bind := &scan.BindData{Table: orders, Columns: []int{0, 1, 2}}
	if threshold > 0 {
		bind.Filters = []exec.Comparison{{
			Left:  exec.ColumnRef{Index: 2, T: vector.TypeInt64},
			Op:    exec.Gte,
			Right: exec.Const{Value: threshold, T: vector.TypeInt64},
		}}
	}

	fn := scan.NewFunction(scan.Options{Debug: verbose})

	if threshold > 0 {
		rewrote, err := scan.RewriteIndexPushdown(tx, bind)
		if err != nil {
			log.Fatalf("pushdown: %v", err)
		}
		if rewrote {
			color.Green("index pushdown fired: %s -> %d candidate row ids", fn.ToString(bind), len(bind.ResultIDs))
		} else {
			color.Yellow("index pushdown did not fire; falling back to %s with a row-level filter", fn.ToString(bind))
		}
	}

	ordersChild := &scanChild{fn: fn, bind: bind, tx: tx, types: []vector.TypeTag{vector.TypeInt64, vector.TypeInt64, vector.TypeInt64}}
	customersChild := &scanChild{
		fn:    fn,
		bind:  &scan.BindData{Table: customers, Columns: []int{0, 1}},
		tx:    tx,
		types: []vector.TypeTag{vector.TypeInt64, vector.TypeString},
	}

	conds := []join.Condition{{
		Left:       exec.ColumnRef{Index: 0, T: vector.TypeInt64}, // customers.id
		Right:      exec.ColumnRef{Index: 1, T: vector.TypeInt64}, // orders.customer_id
		Comparator: exec.Eq,
	}}
	op := join.NewOperator(customersChild, ordersChild, conds, join.Inner, join.Options{Debug: verbose})
	state := op.GetOperatorState()

	fmt.Printf("%s rows of customers, %s rows of orders (cardinality estimate)\n",
		humanize.Comma(customers.RowCount()), humanize.Comma(fn.Cardinality(bind)))

	printJoinResult(op, state)
}

func buildTables(n int) (*catalog.MemTable, *catalog.MemTable) {
	customers := catalog.NewMemTable("customers", []vector.TypeTag{vector.TypeInt64, vector.TypeString})
	orders := catalog.NewMemTable("orders", []vector.TypeTag{vector.TypeInt64, vector.TypeInt64, vector.TypeInt64})

	names := []string{"Ada", "Grace", "Alan", "Katherine", "Edsger", "Barbara"}
	for i := 0; i < n; i++ {
		customers.AppendRow(int64(i), names[i%len(names)])
		// Every customer places one order; amounts vary so -min-amount has
		// something to filter on.
		orders.AppendRow(int64(i), int64(i), int64((i%10)*100+50))
	}
	return customers, orders
}

func amountKeys(orders *catalog.MemTable) []interface{} {
	n := orders.RowCount()
	keys := make([]interface{}, n)
	tx := txn.NewMemTxn(1)
	out := vector.NewChunk([]vector.TypeTag{vector.TypeInt64})
	st, _ := orders.InitializeScan(tx, []int{2}, nil)
	row := 0
	for {
		if err := orders.Scan(tx, out, st, []int{2}, nil); err != nil {
			log.Fatalf("building index keys: %v", err)
		}
		if out.Size() == 0 {
			break
		}
		for i := 0; i < out.Size(); i++ {
			keys[row] = out.Columns[0].Get(i)
			row++
		}
	}
	return keys
}

func rowIDRange(n int64) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i)
	}
	return ids
}

// scanChild adapts a scan.Function + scan.BindData into a join.Child, the
// glue between the two packages' pull-based operator contracts.
type scanChild struct {
	fn    *scan.Function
	bind  *scan.BindData
	tx    txn.Txn
	types []vector.TypeTag
}

func (c *scanChild) GetTypes() []vector.TypeTag { return c.types }

func (c *scanChild) GetOperatorState() join.ChildState {
	state, err := c.fn.Init(c.tx, c.bind, nil)
	if err != nil {
		log.Fatalf("scan init: %v", err)
	}
	return &scanChildState{fn: c.fn, state: state}
}

type scanChildState struct {
	fn    *scan.Function
	state *scan.OperatorState
}

func (s *scanChildState) ProduceChunk(out *vector.Chunk) error {
	return s.fn.Function(out, s.state)
}

func printJoinResult(op *join.Operator, state *join.State) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header(strings.Split("customer_id,customer_name,order_id,order_customer_id,order_amount", ","))

	total := 0
	for {
		out := vector.NewChunk(op.GetTypes())
		if err := state.ProduceChunk(out); err != nil {
			log.Fatalf("join: %v", err)
		}
		if out.Size() == 0 {
			break
		}
		for i := 0; i < out.Size(); i++ {
			row := make([]string, len(out.Columns))
			for c, col := range out.Columns {
				row[c] = formatCell(col.Get(i))
			}
			table.Append(row)
		}
		total += out.Size()
	}
	table.Render()
	color.Cyan("%s joined rows", humanize.Comma(int64(total)))
}

func formatCell(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
