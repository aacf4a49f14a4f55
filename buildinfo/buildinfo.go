// Package buildinfo exposes the vespaVersion capability string the config
// protocol reports in every request, so the server can make
// version-gated decisions about what it sends back.
package buildinfo

import "os"

const defaultVersion = "8.0.0"

// Version returns VESPA_VERSION if set, otherwise defaultVersion. It is
// read fresh on every call rather than cached, since tests commonly vary
// it with t.Setenv.
func Version() string {
	if v := os.Getenv("VESPA_VERSION"); v != "" {
		return v
	}
	return defaultVersion
}
