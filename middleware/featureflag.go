package middleware

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
)

var (
	featureFlags   map[string]bool
	featureFlagsMu sync.RWMutex
)

// LoadFeatureFlags reads the JSON document mapping router paths (as matched,
// e.g. "/v1/matches/:match_id/salts") to booleans. A missing file means all
// routes stay enabled; missing entries default to enabled.
func LoadFeatureFlags(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read feature flags %s", path)
	}

	flags := map[string]bool{}
	if err := json.Unmarshal(raw, &flags); err != nil {
		return errors.Wrapf(err, "parse feature flags %s", path)
	}

	featureFlagsMu.Lock()
	featureFlags = flags
	featureFlagsMu.Unlock()
	return nil
}

// SetFeatureFlag overrides one flag; used by tests.
func SetFeatureFlag(path string, enabled bool) {
	featureFlagsMu.Lock()
	defer featureFlagsMu.Unlock()
	if featureFlags == nil {
		featureFlags = map[string]bool{}
	}
	featureFlags[path] = enabled
}

// FeatureFlag hides disabled routes behind a 404, indistinguishable from a
// route that never existed.
func FeatureFlag() gin.HandlerFunc {
	return func(c *gin.Context) {
		featureFlagsMu.RLock()
		enabled, declared := featureFlags[c.FullPath()]
		featureFlagsMu.RUnlock()

		if declared && !enabled {
			AbortWithError(c, http.StatusNotFound, errors.Errorf("route %s not found", c.Request.URL.Path))
			return
		}
		c.Next()
	}
}
