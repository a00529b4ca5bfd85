// Package core provides file access and profiling for the raw data root.
//
// This package owns everything that touches the filesystem: it resolves
// requested references inside the data root, enumerates files, loads
// delimited files into memory and computes column statistics. It has no
// knowledge of rules or HTTP and can be used by the web server, the CLI or
// tests without modification.
//
// # Sandbox
//
// All access goes through a [Sandbox] bound to one data root:
//
//	sb, err := core.NewSandbox("data/raw")
//	files, err := sb.Scan(ctx)
//	profiles, tables, err := sb.Profile(ctx, files, 4)
//	preview, err := sb.Preview("digital/meta_ads.csv", 20)
//
// [Sandbox.Resolve] is the only way a caller-supplied reference becomes a
// path. References that escape the root fail with [ErrForbidden]; references
// that do not name a regular file fail with [ErrNotFound].
//
// # Profiling
//
// Tabular files (.csv, .tsv) are read fully into a [Table]. Bytes that are
// not valid UTF-8 are decoded as Windows-1252 rather than rejected. Each
// column gets a [ColumnProfile] with null counts, distinct counts, samples
// and, when every value parses as a number or a date, its min and max.
//
// # Error Handling
//
// Request-level failures use the sentinels [ErrNotFound], [ErrForbidden] and
// [ErrInvalidParameter]. [MapError] turns any error into a [UserMessage]
// with a support code:
//
//   - PATH001-PATH002: path resolution (not found, forbidden)
//   - FILE001: tabular files that cannot be parsed
//   - PARAM001: invalid request parameters
//   - RULE001: rule document problems
//   - REQ001-REQ002: scan capacity and timeouts
//   - ERR000: everything else
package core
