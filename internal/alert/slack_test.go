package alert_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluegreenops/logwatcher/internal/alert"
)

func TestSlackSink_RejectsNonHTTPScheme(t *testing.T) {
	_, err := alert.NewSlackSink("ftp://hooks.example.com/services/T/B/X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http")
}

func TestSlackSink_RejectsMetadataEndpoint(t *testing.T) {
	_, err := alert.NewSlackSink("http://169.254.169.254/latest/meta-data")
	require.Error(t, err)

	_, err = alert.NewSlackSink("https://metadata.google.internal/computeMetadata")
	require.Error(t, err)
}

func TestSlackSink_AcceptsHTTPSWebhook(t *testing.T) {
	_, err := alert.NewSlackSink("https://hooks.slack.com/services/T000/B000/XXXX")
	assert.NoError(t, err)
}

func TestSlackSink_ErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	sink, err := alert.NewSlackSink(srv.URL)
	require.NoError(t, err)

	err = sink.Send(context.Background(), alert.NewRecovery("blue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSlackSink_PostsWithMethodAndContentType(t *testing.T) {
	var gotMethod, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := alert.NewSlackSink(srv.URL)
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), alert.NewFailover("blue", "green")))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
}

func TestSlackSink_CancelledContextAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := alert.NewSlackSink(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sink.Send(ctx, alert.NewRecovery("blue"))
	require.Error(t, err)
}
