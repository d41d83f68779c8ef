package remote

import "errors"

var (
	// ErrRemoteStoreNotFound indicates the server does not serve the requested store.
	ErrRemoteStoreNotFound = errors.New("remote: store not found on server")

	// ErrRemote wraps server-side failures outside the store error taxonomy.
	ErrRemote = errors.New("remote: server error")

	// ErrInvalidFrame indicates a short or inconsistent frame.
	ErrInvalidFrame = errors.New("remote: invalid frame format")

	// ErrFrameTooLarge indicates a frame above MaxFrameSize.
	ErrFrameTooLarge = errors.New("remote: frame too large")

	// ErrRequestIDMismatch indicates a response for a different request.
	ErrRequestIDMismatch = errors.New("remote: response request ID mismatch")

	// ErrInvalidEndpoint indicates an endpoint string could not be parsed.
	ErrInvalidEndpoint = errors.New("remote: invalid endpoint")

	// ErrNoEndpoints indicates SRV discovery returned nothing usable.
	ErrNoEndpoints = errors.New("remote: no endpoints found")

	// ErrDNSLookupFailed indicates the SRV query itself failed.
	ErrDNSLookupFailed = errors.New("remote: DNS lookup failed")
)
