package helper

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountID(t *testing.T) {
	// SteamID3 passes through.
	id, err := ParseAccountID("123456789")
	require.NoError(t, err)
	assert.Equal(t, uint32(123456789), id)

	// SteamID64 converts down.
	id, err = ParseAccountID("76561198083722517")
	require.NoError(t, err)
	assert.Equal(t, uint32(123456789), id)

	_, err = ParseAccountID("")
	assert.Error(t, err)
	_, err = ParseAccountID("not-a-number")
	assert.Error(t, err)
	// Above the SteamID64 threshold but below the base offset.
	_, err = ParseAccountID("72157594000000000")
	assert.Error(t, err)
}

func TestParseAccountIDListToleratesEmptyTokens(t *testing.T) {
	ids, err := ParseAccountIDList("1,2,,3,")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, ids)

	ids, err = ParseAccountIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseAccountIDList("1,bogus")
	assert.Error(t, err)
}

func TestParseStringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseStringList(" a, ,b,"))
	assert.Nil(t, ParseStringList(""))
}

func TestNormalizeAPIKey(t *testing.T) {
	key, ok := NormalizeAPIKey("C2C7F808-6D03-4B60-B1BF-1E0EAE2B4398")
	require.True(t, ok)
	assert.Equal(t, "c2c7f808-6d03-4b60-b1bf-1e0eae2b4398", key)

	// One stray prefix character is tolerated.
	key, ok = NormalizeAPIKey("Hc2c7f808-6d03-4b60-b1bf-1e0eae2b4398")
	require.True(t, ok)
	assert.Equal(t, "c2c7f808-6d03-4b60-b1bf-1e0eae2b4398", key)

	_, ok = NormalizeAPIKey("")
	assert.False(t, ok)
	_, ok = NormalizeAPIKey("XYc2c7f808-6d03-4b60-b1bf-1e0eae2b4398")
	assert.False(t, ok)
	_, ok = NormalizeAPIKey("not-a-uuid")
	assert.False(t, ok)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "c2c7f8...4398", MaskAPIKey("c2c7f808-6d03-4b60-b1bf-1e0eae2b4398"))
	assert.Equal(t, "***", MaskAPIKey("short"))
	assert.Equal(t, "***", MaskAPIKey(""))
}

func TestHourBucket(t *testing.T) {
	assert.Equal(t, int64(7200), HourBucket(7200))
	assert.Equal(t, int64(7200), HourBucket(7201))
	assert.Equal(t, int64(7200), HourBucket(10799))
}

func TestBadgeTier(t *testing.T) {
	tier, subtier := BadgeTier(116)
	assert.Equal(t, 11, tier)
	assert.Equal(t, 6, subtier)

	tier, subtier = BadgeTier(0)
	assert.Equal(t, 0, tier)
	assert.Equal(t, 0, subtier)
}

func TestClientIPPrecedence(t *testing.T) {
	gin.SetMode(gin.TestMode)

	build := func(headers map[string]string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.RemoteAddr = "192.0.2.9:1234"
		for k, v := range headers {
			c.Request.Header.Set(k, v)
		}
		return c
	}

	assert.Equal(t, "1.1.1.1", ClientIP(build(map[string]string{
		"CF-Connecting-IP": "1.1.1.1",
		"X-Real-IP":        "2.2.2.2",
		"X-Forwarded-For":  "3.3.3.3, 4.4.4.4",
	})))
	assert.Equal(t, "2.2.2.2", ClientIP(build(map[string]string{
		"X-Real-IP":       "2.2.2.2",
		"X-Forwarded-For": "3.3.3.3",
	})))
	assert.Equal(t, "3.3.3.3", ClientIP(build(map[string]string{
		"X-Forwarded-For": "3.3.3.3, 4.4.4.4",
	})))
	assert.Equal(t, "192.0.2.9", ClientIP(build(nil)))
}
