package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &Client{
		httpClient: server.Client(),
		apiBase:    server.URL,
		uploadBase: server.URL + "/upload",
		pageSize:   2,
		tokenSource: &tokenSource{
			fetch: func(context.Context) (string, time.Time, error) {
				return "test-token", time.Now().Add(time.Hour), nil
			},
		},
	}
}

func TestListFolderPaginates(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Contains(t, r.URL.Query().Get("q"), "'folder-1' in parents")
		require.Contains(t, r.URL.Query().Get("q"), "mimeType = 'image/jpeg'")

		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"nextPageToken":"next","files":[{"id":"a","name":"ABC_1234.jpg","mimeType":"image/jpeg","parents":["folder-1"],"size":"2048"}]}`)
		case "next":
			fmt.Fprint(w, `{"files":[{"id":"b","name":"DEF_5678.png","mimeType":"image/png","parents":["folder-1"]}]}`)
		default:
			http.Error(w, "unexpected page token", http.StatusBadRequest)
		}
	}))

	files, err := client.ListFolder(context.Background(), "folder-1", []string{"image/jpeg", "image/png"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "ABC_1234.jpg", files[0].Name)
	assert.Equal(t, int64(2048), files[0].Size)
	assert.Equal(t, "b", files[1].ID)
}

func TestDownload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/file-9", r.URL.Path)
		require.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = w.Write([]byte("image-bytes"))
	}))

	data, err := client.Download(context.Background(), "file-9")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestDownloadNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))

	_, err := client.Download(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestEnsureFolderFindsExisting(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Contains(t, r.URL.Query().Get("q"), "name = 'procesadas'")
		fmt.Fprint(w, `{"files":[{"id":"existing-id","name":"procesadas"}]}`)
	}))

	id, err := client.EnsureFolder(context.Background(), "root", "procesadas")
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
}

func TestEnsureFolderCreatesWhenMissing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"files":[]}`)
			return
		}
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "errores", body["name"])
		assert.Equal(t, folderMimeType, body["mimeType"])
		fmt.Fprint(w, `{"id":"created-id"}`)
	}))

	id, err := client.EnsureFolder(context.Background(), "root", "errores")
	require.NoError(t, err)
	assert.Equal(t, "created-id", id)
}

func TestMoveReparentsFile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/files/file-3", r.URL.Path)
		assert.Equal(t, "dest", r.URL.Query().Get("addParents"))
		assert.Equal(t, "old-1,old-2", r.URL.Query().Get("removeParents"))
		fmt.Fprint(w, `{"id":"file-3","parents":["dest"]}`)
	}))

	file := File{ID: "file-3", Parents: []string{"old-1", "old-2"}}
	require.NoError(t, client.Move(context.Background(), file, "dest"))
}

func TestUploadSendsMultipart(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/files", r.URL.Path)
		require.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/related")
		fmt.Fprint(w, `{"id":"uploaded-id"}`)
	}))

	id, err := client.Upload(context.Background(), "dest", "debug.txt", "text/plain", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "uploaded-id", id)
}

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	fetches := 0
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			fetches++
			return fmt.Sprintf("token-%d", fetches), time.Now().Add(time.Hour), nil
		},
	}

	for i := 0; i < 3; i++ {
		token, err := ts.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-1", token)
	}
	assert.Equal(t, 1, fetches)
}

func TestTokenSourceRefreshesExpired(t *testing.T) {
	fetches := 0
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			fetches++
			return fmt.Sprintf("token-%d", fetches), time.Now().Add(10 * time.Second), nil
		},
	}

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	token, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}
