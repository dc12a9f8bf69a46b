// Package api exposes the resolved settings over HTTP for diagnostics: the
// validated tree, single values by dotted path, a reload trigger and the
// effective per-domain rate limits. Values under *api_key keys are masked.
package api
