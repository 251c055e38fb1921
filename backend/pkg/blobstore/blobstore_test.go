package blobstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := map[string][]byte{}
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimPrefix(r.URL.Path, "/blobs/")
		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			store[cid] = data
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			data, ok := store[cid]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(data)
		}
	}))
	defer gateway.Close()

	client := New(gateway.URL)
	payload := []byte("sealed descriptor bytes")

	cid, err := client.Put(context.Background(), payload)
	require.NoError(t, err)
	assert.Len(t, cid, 64)

	got, err := client.Get(context.Background(), cid)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = client.Get(context.Background(), "missing-cid")
	assert.Error(t, err)
}

func TestSealOpen(t *testing.T) {
	key := make([]byte, 32)
	copy(key, "0123456789abcdef0123456789abcdef")
	plaintext := []byte(`{"descriptor":[0.1,0.2]}`)

	sealed, err := Seal(key, plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "descriptor")

	opened, err := Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)

	// Tampering breaks authentication.
	sealed[len(sealed)-1] ^= 0xff
	_, err = Open(key, sealed)
	assert.Error(t, err)

	wrongKey := make([]byte, 16)
	_, err = Seal(wrongKey, plaintext)
	assert.Error(t, err)
}
