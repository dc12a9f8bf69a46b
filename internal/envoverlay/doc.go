// Package envoverlay applies DATAPROWLER_* environment variables on top of a
// settings tree. DATAPROWLER_SCRAPING_TIMEOUT=30 becomes
// {"scraping": {"timeout": 30}}: the name after the prefix is lowercased and
// split on "_" into path segments, and the value is coerced to int, bool,
// float or string, in that order.
//
// Names are split on every underscore, so multi-word keys are ambiguous:
// DATAPROWLER_CACHE_MAX_SIZE addresses cache.max.size, never cache.max_size.
// This is a known limitation of the naming scheme and is kept as is.
package envoverlay
