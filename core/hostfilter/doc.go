// Package hostfilter restricts which remote hosts the storage layer may
// connect to. Operators define an allowlist of exact host names and host
// regular expressions; every outbound connection attempt is checked against
// it before any I/O happens.
//
// A nil or empty filter allows everything, so deployments without a
// configured allowlist keep working unchanged:
//
//	f, err := hostfilter.New(
//		[]string{"storage.internal:9000"},
//		[]string{`^[a-z0-9.-]+\.s3\.amazonaws\.com$`},
//	)
//	if err != nil {
//		return err
//	}
//	if err := f.Check("evil.example.com"); err != nil {
//		// errors.Is(err, storage.ErrForbiddenHost)
//	}
//
// The filter is immutable after construction and safe for concurrent use.
package hostfilter
