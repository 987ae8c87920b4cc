// Command dataviz profiles a dataset, asks an LLM for chart proposals and
// renders them.
//
// Usage:
//
//	dataviz profile --file sales.csv --clean
//	dataviz propose --file sales.csv --question "What drives revenue?" --out proposals.json
//	dataviz render  --file sales.csv --proposals proposals.json --html dashboard.html
//	dataviz run     --file sales.csv --question "What drives revenue?"
//	dataviz exec    --file sales.csv --question "Monthly revenue trend"
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := NewApp().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
