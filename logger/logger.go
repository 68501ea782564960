// Package logger provides adapters for popular logger libraries to work with
// bwtree's Logger interface.
//
// The adapters allow you to use your existing logger with bwtree without
// writing boilerplate. Note that the standard library's slog.Logger already
// implements bwtree.Logger directly.
//
// Example with zap:
//
//	import (
//	    "bytes"
//
//	    "bwtree"
//	    "logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    tree := bwtree.New(bytes.Compare, bwtree.BytesEqual,
//	        bwtree.WithLogger(logger.NewZap(zapLogger)),
//	    )
//	}
package logger
