// Package agent implements the specialized task agents behind the orchestrator.
//
// Invariants:
// - Process self-contains expected failures: missing fields and backend
//   errors become {success:false, message} payloads, not error returns.
// - CheckStatus delegates to the bound llm.Connector and never fails loudly.
// - Fenced-code parsing keeps its fallback order: first ```python block,
//   explanation after the block, else before it, else the whole response
//   is the primary field.
//
// Usage:
//
//	a := agent.NewCodeAssistant(connector, logger)
//	result, _ := a.Process(ctx, agent.TaskRequest{"code": "print(1)"})
//	_ = result
package agent
