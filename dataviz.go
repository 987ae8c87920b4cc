// Package dataviz turns a tabular dataset into LLM-proposed charts.
//
// Usage:
//
//	import "github.com/ifatmagamha/data-viz/session"
//
//	router, _ := translator.NewRouter(settings)
//	s := session.New(settings, router)
//	s.Load("sales.csv")
//	s.Propose(ctx, "What drives revenue?")
//	s.ExportHTML(ctx, out, "")
//
// The translator package asks Claude or Gemini for chart proposals and
// validates them; the engine renders proposals locally (filter → aggregate
// → chart) and never calls an external service. Generated code only runs
// inside the WebAssembly sandbox.
package dataviz
