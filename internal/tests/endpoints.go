package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func GetOK(t *testing.T, router http.Handler, path string, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodGet, path, nil, http.StatusOK, nil, receiver[0])
	} else {
		endpoint(t, router, http.MethodGet, path, nil, http.StatusOK, nil)
	}
}

func GetNotFound(t *testing.T, router http.Handler, path string) {
	t.Helper()

	endpoint(t, router, http.MethodGet, path, nil, http.StatusNotFound, nil)
}

func GetBadRequest(t *testing.T, router http.Handler, path string) {
	t.Helper()

	endpoint(t, router, http.MethodGet, path, nil, http.StatusBadRequest, nil)
}

func GetOKBytes(t *testing.T, router http.Handler, path string) []byte {
	t.Helper()

	response := endpoint(t, router, http.MethodGet, path, nil, http.StatusOK, nil)

	return response.Body.Bytes()
}

func PostCreated(t *testing.T, router http.Handler, path string, body any, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodPost, path, body, http.StatusCreated, nil, receiver[0])
	} else {
		endpoint(t, router, http.MethodPost, path, body, http.StatusCreated, nil)
	}
}

// PostStatus posts body and asserts the expected status, returning the recorded response.
func PostStatus(t *testing.T, router http.Handler, path string, body any, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	return endpoint(t, router, http.MethodPost, path, body, expectedStatus, nil)
}

func endpointWithReceiver(t *testing.T, router http.Handler, method string,
	path string, body any, expectedStatus int, headers map[string]string, receiver any,
) {
	t.Helper()

	resp := endpoint(t, router, method, path, body, expectedStatus, headers)
	if receiver != nil {
		if err := json.NewDecoder(resp.Body).Decode(receiver); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
}

// endpoint performs the request against router. String and []byte bodies are sent as is with a
// text/plain content type, any other body is encoded as json.
func endpoint(t *testing.T, router http.Handler, method string, path string, body any, expectedStatus int, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	reqCtx, cancel := context.WithTimeout(t.Context(), time.Second*10)
	defer cancel()

	recorder := httptest.NewRecorder()

	var (
		bodyReader  io.Reader
		contentType string
	)

	switch value := body.(type) {
	case nil:
	case string:
		bodyReader = bytes.NewReader([]byte(value))
		contentType = "text/plain"
	case []byte:
		bodyReader = bytes.NewReader(value)
		contentType = "text/plain"
	default:
		bodyJSON, errJSON := json.Marshal(body)
		if errJSON != nil {
			t.Fatalf("Failed to encode request: %v", errJSON)
		}

		bodyReader = bytes.NewReader(bodyJSON)
		contentType = "application/json"
	}

	request, errRequest := http.NewRequestWithContext(reqCtx, method, path, bodyReader)
	if errRequest != nil {
		t.Fatalf("Failed to make request: %v", errRequest)
	}

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	for key, value := range headers {
		request.Header.Set(key, value)
	}

	router.ServeHTTP(recorder, request)

	require.Equal(t, expectedStatus, recorder.Code, "Received invalid response code. method: %s path: %s body: %s",
		method, path, recorder.Body.String())

	return recorder
}
