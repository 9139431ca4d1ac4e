package provisioner

import "fmt"

// ProvisioningError reports a failed provisioning run after cleanup has been
// attempted. Err is the step failure, never the cleanup failure.
type ProvisioningError struct {
	Subdomain string
	Database  string
	Step      string
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision tenant %q (database %s, step %s): %v", e.Subdomain, e.Database, e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
