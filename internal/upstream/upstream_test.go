package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "secret", r.Header.Get("X-Key"))
			_, _ = w.Write([]byte(`{"name":"ok"}`))
		case "/broken":
			_, _ = w.Write([]byte(`{"name":`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(0)
	ctx := context.Background()

	var out struct {
		Name string `json:"name"`
	}
	header := http.Header{}
	header.Set("X-Key", "secret")
	require.NoError(t, GetJSON(ctx, client, "test", srv.URL+"/ok", header, &out))
	assert.Equal(t, "ok", out.Name)

	err := GetJSON(ctx, client, "test", srv.URL+"/fail", nil, &out)
	assert.True(t, errors.Is(err, ErrUnavailable))

	err = GetJSON(ctx, client, "test", srv.URL+"/broken", nil, &out)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestGetJSONTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out map[string]any
	err := GetJSON(context.Background(), NewHTTPClient(0), "test", url, nil, &out)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestNormalizeCity(t *testing.T) {
	assert.Equal(t, "New York", NormalizeCity("New-York"))
	assert.Equal(t, "New York", NormalizeCity("New York"))
	assert.Equal(t, "Las Vegas", NormalizeCity(" Las-Vegas "))
}
