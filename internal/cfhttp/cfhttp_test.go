package cfhttp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veilmesh/cfengine/internal/cfhttp"
)

func TestClient_Get(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cfengine-test/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[Adblock Plus]\n"))
	}))
	defer srv.Close()

	c := cfhttp.NewClient(&cfhttp.ClientConfig{
		Timeout:   time.Second,
		UserAgent: "cfengine-test/1.0",
	})

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, cfhttp.CheckStatus(resp, http.StatusOK))
}

func TestCheckStatus_mismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := cfhttp.NewClient(&cfhttp.ClientConfig{Timeout: time.Second, UserAgent: "x"})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	err = cfhttp.CheckStatus(resp, http.StatusOK)
	require.Error(t, err)

	var statusErr *cfhttp.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Got)
}
