package instance

import "os"

// EnvInstanceID overrides the instance identifier attached to logs.
const EnvInstanceID = "STOREFRONT_INSTANCE_ID"

// GetID returns the process identifier used in logs: the explicit override,
// then the platform dyno name, then the hostname, then "local".
func GetID() string {
	for _, key := range []string{EnvInstanceID, "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
