// Package download runs download jobs end to end. A job is registered
// synchronously, executed on a bounded worker pool through the extractor
// (github.com/lrstanley/go-ytdlp behind internal/extractor), retried under an
// explicit fallback policy and published into the public downloads directory.
// Every job started here ends in Finished or Failed.
package download
