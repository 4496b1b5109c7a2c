package env

import "os"

// Get reads key from the process environment, falling back when the variable
// is unset or blank. Blank counts as unset so an empty line in a .env file
// does not clobber the default.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
