package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)

	_, err = New("://nope")
	assert.Error(t, err)

	c, err := New("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
}

func TestClient_ListCities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cities", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":1,"cityName":"Lisbon","country":"Portugal","position":{"lat":38.72,"lng":-9.14}},
			{"id":"abc","cityName":"Madrid","country":"Spain","position":{"lat":40.42,"lng":-3.7}}]`)
	})

	cities, err := c.ListCities(t.Context())
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, types.CityID("1"), cities[0].ID)
	assert.Equal(t, "Lisbon", cities[0].CityName)
	assert.Equal(t, types.CityID("abc"), cities[1].ID)
}

func TestClient_ListCitiesNullBodyIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	cities, err := c.ListCities(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, cities)
	assert.Empty(t, cities)
}

func TestClient_GetCityEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cities/a%2Fb", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"id":"a/b","cityName":"Odd"}`)
	})

	city, err := c.GetCity(t.Context(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "Odd", city.CityName)
}

func TestClient_CreateCitySendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_, hasID := in["id"]
		assert.False(t, hasID, "client must not send an id")
		assert.Equal(t, "Porto", in["cityName"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7,"cityName":"Porto","country":"Portugal","position":{"lat":41.15,"lng":-8.61}}`)
	})

	created, err := c.CreateCity(t.Context(), types.City{
		ID:       "ignored",
		CityName: "Porto",
		Country:  "Portugal",
		Position: types.Position{Lat: 41.15, Lng: -8.61},
	})
	require.NoError(t, err)
	assert.Equal(t, types.CityID("7"), created.ID)
}

func TestClient_DeleteCityIgnoresBody(t *testing.T) {
	var gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteCity(t.Context(), "3"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestClient_ListCountries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/countries", r.URL.Path)
		_, _ = io.WriteString(w, `[{"country":"Portugal","emoji":"🇵🇹"}]`)
	})

	countries, err := c.ListCountries(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []types.Country{{Country: "Portugal", Emoji: "🇵🇹"}}, countries)
}

func TestClient_NonSuccessStatusFails(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = io.WriteString(w, `{"error":"boom"}`)
			})

			_, err := c.GetCity(t.Context(), "1")
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrRequestFailed)

			var rerr *RequestError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, status, rerr.StatusCode)
			assert.Equal(t, http.MethodGet, rerr.Method)
			assert.Contains(t, rerr.Body, "boom")
		})
	}
}

func TestClient_InvalidJSONFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	_, err := c.ListCities(t.Context())
	assert.ErrorIs(t, err, types.ErrRequestFailed)
}

func TestClient_TransportErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	_, err = c.ListCities(t.Context())
	require.ErrorIs(t, err, types.ErrRequestFailed)

	var rerr *RequestError
	require.ErrorAs(t, err, &rerr)
	assert.Zero(t, rerr.StatusCode)
}

func TestClient_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.ListCities(ctx)
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, types.ErrRequestFailed)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("request did not abort on cancel")
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}, WithTimeout(20*time.Millisecond))
	defer close(release)

	_, err := c.ListCities(t.Context())
	assert.ErrorIs(t, err, types.ErrRequestFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestError_Message(t *testing.T) {
	err := &RequestError{Method: "GET", URL: "http://x/cities", StatusCode: 500, Err: errors.New("Internal Server Error")}
	assert.Equal(t, "GET http://x/cities: status 500: Internal Server Error", err.Error())
	assert.ErrorIs(t, &RequestError{Method: "GET"}, types.ErrRequestFailed)
}
