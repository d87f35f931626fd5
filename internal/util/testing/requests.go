package test_utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type RequestOptions struct {
	Method         string
	URL            string
	Body           any
	ExpectedStatus int
}

type TestResponse struct {
	StatusCode int
	Body       []byte
}

func MakeRequest(t *testing.T, router *gin.Engine, options RequestOptions) *TestResponse {
	t.Helper()

	var body io.Reader
	if options.Body != nil {
		data, err := json.Marshal(options.Body)
		require.NoError(t, err, "failed to marshal request body")
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(options.Method, options.URL, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if options.ExpectedStatus != 0 {
		assert.Equal(t, options.ExpectedStatus, w.Code,
			"unexpected status for %s %s, body: %s", options.Method, options.URL, w.Body.String())
	}

	return &TestResponse{StatusCode: w.Code, Body: w.Body.Bytes()}
}

func MakeGetRequest(t *testing.T, router *gin.Engine, url string, expectedStatus int) *TestResponse {
	t.Helper()
	return MakeRequest(t, router, RequestOptions{Method: http.MethodGet, URL: url, ExpectedStatus: expectedStatus})
}

func MakeGetRequestAndUnmarshal(t *testing.T, router *gin.Engine, url string, expectedStatus int, response any) {
	t.Helper()
	unmarshal(t, MakeGetRequest(t, router, url, expectedStatus), response)
}

func MakePostRequest(t *testing.T, router *gin.Engine, url string, body any, expectedStatus int) *TestResponse {
	t.Helper()
	return MakeRequest(t, router, RequestOptions{
		Method:         http.MethodPost,
		URL:            url,
		Body:           body,
		ExpectedStatus: expectedStatus,
	})
}

func MakePostRequestAndUnmarshal(
	t *testing.T,
	router *gin.Engine,
	url string,
	body any,
	expectedStatus int,
	response any,
) {
	t.Helper()
	unmarshal(t, MakePostRequest(t, router, url, body, expectedStatus), response)
}

func MakePutRequest(t *testing.T, router *gin.Engine, url string, body any, expectedStatus int) *TestResponse {
	t.Helper()
	return MakeRequest(t, router, RequestOptions{
		Method:         http.MethodPut,
		URL:            url,
		Body:           body,
		ExpectedStatus: expectedStatus,
	})
}

func MakePutRequestAndUnmarshal(
	t *testing.T,
	router *gin.Engine,
	url string,
	body any,
	expectedStatus int,
	response any,
) {
	t.Helper()
	unmarshal(t, MakePutRequest(t, router, url, body, expectedStatus), response)
}

func MakePatchRequest(t *testing.T, router *gin.Engine, url string, body any, expectedStatus int) *TestResponse {
	t.Helper()
	return MakeRequest(t, router, RequestOptions{
		Method:         http.MethodPatch,
		URL:            url,
		Body:           body,
		ExpectedStatus: expectedStatus,
	})
}

func MakePatchRequestAndUnmarshal(
	t *testing.T,
	router *gin.Engine,
	url string,
	body any,
	expectedStatus int,
	response any,
) {
	t.Helper()
	unmarshal(t, MakePatchRequest(t, router, url, body, expectedStatus), response)
}

func MakeDeleteRequest(t *testing.T, router *gin.Engine, url string, expectedStatus int) *TestResponse {
	t.Helper()
	return MakeRequest(t, router, RequestOptions{Method: http.MethodDelete, URL: url, ExpectedStatus: expectedStatus})
}

func unmarshal(t *testing.T, resp *TestResponse, response any) {
	t.Helper()

	if err := json.Unmarshal(resp.Body, response); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", string(resp.Body), err)
	}
}
