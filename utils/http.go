// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by every outbound call (commentary service). The
// timeout bounds how long a single tick can wait on prose.
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}
