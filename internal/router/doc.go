// Package router implements the argument router shared by the train and
// image subcommands.
//
// The core algorithm is a single left-to-right pass over the raw argument
// vector against a static flag table:
//
//	{spelling → (takes value, effect on the request)}
//
// At each position, a recognized flag applies its effect (consuming the
// following token as its value when the table says so) and the scan
// advances past everything consumed; any other token is appended to the
// pass-through list and the scan advances by one. There is no
// backtracking, so flag order does not matter, but a value flag's value
// must immediately follow it.
//
// The pass-through list preserves the original token order verbatim —
// the downstream launcher sees exactly what the operator typed, minus
// the orchestration flags the router consumed.
package router
