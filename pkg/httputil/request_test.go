package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"token"}`))

		var dest struct {
			Name string `json:"name"`
		}
		err := ParseJSON(r, &dest)

		assert.NoError(t, err)
		assert.Equal(t, "token", dest.Name)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{bad`))

		var dest map[string]interface{}
		err := ParseJSON(r, &dest)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON")
	})
}

func TestParseJSONOrError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/", strings.NewReader(`not json`))

	var dest map[string]interface{}
	ok := ParseJSONOrError(w, r, &dest)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePathString(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/contracts/CTOKEN", nil)
		r = mux.SetURLVars(r, map[string]string{"contractId": "CTOKEN"})

		val, err := ParsePathString(r, "contractId")

		require.NoError(t, err)
		assert.Equal(t, "CTOKEN", val)
	})

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)

		_, err := ParsePathString(r, "contractId")

		assert.Error(t, err)
	})
}

func TestParsePathStringOrError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	_, ok := ParsePathStringOrError(w, r, "contractId")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQueryInt(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?limit=50", nil)

		val, err := ParseQueryInt(r, "limit", 20)

		require.NoError(t, err)
		assert.Equal(t, 50, val)
	})

	t.Run("missing uses default", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)

		val, err := ParseQueryInt(r, "limit", 20)

		require.NoError(t, err)
		assert.Equal(t, 20, val)
	})

	t.Run("invalid", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?limit=abc", nil)

		_, err := ParseQueryInt(r, "limit", 20)

		assert.Error(t, err)
	})
}

func TestParseQueryString(t *testing.T) {
	r := httptest.NewRequest("GET", "/?network=testnet", nil)

	assert.Equal(t, "testnet", ParseQueryString(r, "network", "mainnet"))
	assert.Equal(t, "mainnet", ParseQueryString(r, "missing", "mainnet"))
}

func TestParseQueryTime(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		cursor := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		r := httptest.NewRequest("GET", "/?cursor="+cursor.Format(time.RFC3339Nano), nil)

		val, err := ParseQueryTime(r, "cursor")

		require.NoError(t, err)
		assert.True(t, val.Equal(cursor))
	})

	t.Run("missing yields zero time", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)

		val, err := ParseQueryTime(r, "cursor")

		require.NoError(t, err)
		assert.True(t, val.IsZero())
	})

	t.Run("invalid", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?cursor=yesterday", nil)

		_, err := ParseQueryTime(r, "cursor")

		assert.Error(t, err)
	})
}

func TestRequireNonEmpty(t *testing.T) {
	t.Run("empty writes 400", func(t *testing.T) {
		w := httptest.NewRecorder()

		ok := RequireNonEmpty(w, "", "contract_id")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "contract_id is required")
	})

	t.Run("non-empty passes", func(t *testing.T) {
		w := httptest.NewRecorder()

		assert.True(t, RequireNonEmpty(w, "CTOKEN", "contract_id"))
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates when absent", func(t *testing.T) {
		var seen string
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = w.Header().Get("X-Request-ID")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.NotEmpty(t, seen)
	})

	t.Run("honors inbound header", func(t *testing.T) {
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Request-ID", "req-999")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "req-999", w.Header().Get("X-Request-ID"))
	})
}

func TestChain(t *testing.T) {
	var order []string
	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mk("first"), mk("second"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
