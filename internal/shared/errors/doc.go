// Package errors provides the structured error type shared by the bridge,
// the object registry and the window implementations.
//
// Every error carries a Kind naming its category. Kinds map one to one onto
// the failure taxonomy seen by the page:
//
//   - KindCapabilityNotFound: unknown property or function name
//   - KindPermissionDenied: read or write disallowed by the descriptor
//   - KindInvocationFailure: the callable failed, panicked, or got the wrong arguments
//   - KindBadValue: a SET value could not be coerced to the property type
//   - KindEncodingFailure: a value is not representable as JSON
//   - KindTransportUnavailable: the page is not loaded or not connected
//
// Use errors.Is with the Err* sentinels to test the category:
//
//	if errors.Is(err, bridgeerr.ErrPermissionDenied) { ... }
package errors
