package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bucketstore/internal/netx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKeyID  = uuid.MustParse("8a0d7d2e-7a51-4d3e-9f0b-8f3a3b3d2c11")
	testBucket = uuid.MustParse("1b7e3d53-52c2-4a4b-8d0e-0d4e6a0f9a02")
	testToken  = uuid.MustParse("6f1c1a63-9a0e-4a5b-b1f4-51d1b7f52c03")
	testFile   = uuid.MustParse("c0f0b6f1-2a3b-4c5d-8e9f-a0b1c2d3e4f5")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeAPI answers like the bucket store for one known key and one file.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	creds := Credentials{KeyID: testKeyID, Secret: "pw"}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != creds.header() {
				writeJSON(w, http.StatusBadRequest, map[string]string{"errorInfo": "Failed to verify credentials: incorrect key"})
				return
			}
			next(w, r)
		}
	}

	upload := func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"errorInfo": err.Error()})
			return
		}
		ids := []uuid.UUID{}
		for {
			_, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"errorInfo": err.Error()})
				return
			}
			ids = append(ids, uuid.New())
		}
		writeJSON(w, http.StatusOK, ids)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /key", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"keyId": testKeyID, "key": "pw"})
	})
	mux.HandleFunc("GET /key/verify", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"bucketId": testBucket})
	}))
	mux.HandleFunc("GET /upload/key", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"uploadId": testToken})
	}))
	mux.HandleFunc("POST /upload", authed(upload))
	mux.HandleFunc("POST /upload/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testToken.String() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"errorInfo": "Upload key is not valid"})
			return
		}
		upload(w, r)
	})
	mux.HandleFunc("GET /download/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testFile.String() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNG"))
	}))
	mux.HandleFunc("GET /delete/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testFile.String() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"errorInfo": "File not found"})
		}
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(fakeAPI(t).URL+"/", 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"127.0.0.1:3001", "ftp://host", "http://[::1"} {
		_, err := New(u, time.Second)
		assert.Error(t, err, u)
	}
}

func TestClient_KeyLifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	creds, err := c.IssueKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, testKeyID, creds.KeyID)
	assert.Equal(t, "pw", creds.Secret)

	bucket, err := c.VerifyKey(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, testBucket, bucket)

	token, err := c.IssueUploadKey(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
}

func TestClient_WrongSecret(t *testing.T) {
	c := newTestClient(t)

	_, err := c.VerifyKey(context.Background(), Credentials{KeyID: testKeyID, Secret: "nope"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Failed to verify credentials: incorrect key", apiErr.Info)
}

func TestClient_Upload(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	creds := Credentials{KeyID: testKeyID, Secret: "pw"}

	ids, err := c.Upload(ctx, creds, []netx.FilePart{
		{Name: "a.txt", Content: strings.NewReader("a")},
		{Name: "b.txt", Content: strings.NewReader("b")},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = c.UploadWithToken(ctx, testToken, []netx.FilePart{{Name: "c.txt", Content: strings.NewReader("c")}})
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	_, err = c.UploadWithToken(ctx, uuid.New(), []netx.FilePart{{Name: "d.txt", Content: strings.NewReader("d")}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Upload key is not valid", apiErr.Info)
}

func TestClient_DownloadAndDelete(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	creds := Credentials{KeyID: testKeyID, Secret: "pw"}

	var buf bytes.Buffer
	ct, err := c.Download(ctx, creds, testFile, &buf)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "PNG", buf.String())

	_, err = c.Download(ctx, creds, uuid.New(), io.Discard)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Delete(ctx, creds, testFile))

	err = c.Delete(ctx, creds, uuid.New())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "File not found", apiErr.Info)
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, time.Second)
	require.NoError(t, err)

	_, err = c.IssueKey(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
