package env

import (
	"os"
	"strconv"
)

// Bool reads an environment variable as a boolean, returning defaultValue
// when the variable is unset or unparsable.
func Bool(env string, defaultValue bool) bool {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	return os.Getenv(env) == "true"
}

// Int reads an environment variable as an integer, returning defaultValue
// when the variable is unset or unparsable.
func Int(env string, defaultValue int) int {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	num, err := strconv.Atoi(os.Getenv(env))
	if err != nil {
		return defaultValue
	}
	return num
}

// Float64 reads an environment variable as a float64, returning defaultValue
// when the variable is unset or unparsable.
func Float64(env string, defaultValue float64) float64 {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	num, err := strconv.ParseFloat(os.Getenv(env), 64)
	if err != nil {
		return defaultValue
	}
	return num
}

// String reads an environment variable, returning defaultValue when unset.
func String(env string, defaultValue string) string {
	if env == "" || os.Getenv(env) == "" {
		return defaultValue
	}
	return os.Getenv(env)
}
