// Package logger provides structured logging helpers built on Go's standard
// slog package. It offers pre-built attributes for the storage layer's common
// logging scenarios with nil safety: helpers return an empty Attr for
// zero-value inputs so call sites never need explicit nil checks.
//
// Basic usage:
//
//	import "github.com/querylab/diskstore/core/logger"
//
//	log.Debug("object probe",
//		logger.Bucket("bucket1"),
//		logger.Key("data/part-0001.bin"),
//		logger.Error(err),
//	)
package logger
