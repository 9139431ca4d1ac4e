package router

import "fmt"

// ConnectionError means a tenant's physical database could not be reached.
// It carries the routing key and the underlying cause so callers can tell
// infrastructure failures apart from bad tenant identity.
type ConnectionError struct {
	Subdomain string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect tenant database %q: %v", e.Subdomain, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
