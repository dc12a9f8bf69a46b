// Package schema declares the typed DataProwler settings tree, the default of
// every field, and Validate, which turns a merged raw settings map into a
// *Settings or a SchemaValidationError naming every field that failed.
package schema
