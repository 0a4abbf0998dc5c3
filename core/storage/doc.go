// Package storage defines the contracts shared by the object-storage
// backends that let the query engine treat a remote bucket/key store as a
// disk: rate-limiting capabilities, and the sentinel errors every backend
// maps its provider-specific failures onto.
//
// The package holds no provider code. Backends live under
// integration/storage and translate their native error taxonomy into the
// errors declared here so the engine's retry and placement logic stays
// provider-agnostic:
//
//	exists, err := s3.ObjectExists(ctx, client, bucket, key, "", true)
//	if err != nil {
//		switch {
//		case errors.Is(err, storage.ErrAccessDenied):
//			// credentials problem, do not retry
//		case errors.Is(err, storage.ErrServiceUnavailable):
//			// transient, back off and retry
//		}
//	}
//
// Throttlers are supplied by the engine and consulted by backend transports
// before every outbound request; this package only defines the capability.
package storage
