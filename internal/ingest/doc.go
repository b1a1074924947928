// Package ingest turns external bytes into datasets: delimiter-separated
// text (CSV/TSV) with RFC 4180 quoting, JSON arrays with or without an
// envelope object, and HTTP responses with shape inference over the
// decoded body. It also encodes datasets back to CSV for sink nodes.
package ingest
