// Package maputil holds helpers for untyped nested settings trees
// (map[string]any): deep merge with right-hand precedence, flatten/unflatten
// between nested and separator-joined keys, and a dotted Path walker.
package maputil
