package api_test

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

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aannaassalam/coachiatry-sub001/internal/api"
	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*api.Client, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL+"/api/", "secret", 5*time.Second, zerolog.Nop()), srv.URL
}

func TestClient_StartUpload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/upload/start", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"fileName": "a.png", "fileType": "image/png", "chatId": "c1"}, body)

		w.Write([]byte(`{"uploadId":"u1","key":"k1"}`))
	})

	resp, err := c.StartUpload(context.Background(), domain.StartUploadRequest{FileName: "a.png", FileType: "image/png", ChatID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, &domain.StartUploadResponse{UploadID: "u1", Key: "k1"}, resp)
}

func TestClient_CompleteUploadWireFormat(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.JSONEq(t, `[{"ETag":"\"e1\"","PartNumber":1}]`, string(raw["parts"]))
		w.Write([]byte(`{"fileUrl":"https://cdn.test/k1"}`))
	})

	resp, err := c.CompleteUpload(context.Background(), domain.CompleteUploadRequest{
		UploadID: "u1",
		Key:      "k1",
		Parts:    []domain.CompletedPart{{ETag: `"e1"`, PartNumber: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/k1", resp.FileURL)
}

func TestClient_UploadPart(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		etag    string
		wantErr error
	}{
		{"etag returned", http.StatusOK, `"abc"`, nil},
		{"missing etag", http.StatusOK, "", api.ErrMissingETag},
		{"storage rejects", http.StatusForbidden, `"abc"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, host := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Empty(t, r.Header.Get("Authorization"))
				assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
				assert.Equal(t, int64(5), r.ContentLength)
				if tt.etag != "" {
					w.Header().Set("ETag", tt.etag)
				}
				w.WriteHeader(tt.status)
			})

			// The test server doubles as the storage host.
			signed := host + "/bucket/part?X-Amz-Signature=x"
			etag, err := c.UploadPart(context.Background(), signed, strings.NewReader("hello"), 5, "video/mp4")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.status != http.StatusOK:
				var se *api.StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.status, se.StatusCode)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.etag, etag)
			}
		})
	}
}

func TestClient_GetConversation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat/room-1":
			w.Write([]byte(`{"_id":"room-1","type":"direct","members":[{"_id":"u1"},"u2"]}`))
		case "/api/chat/boom":
			http.Error(w, "exploded", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})

	conv, err := c.GetConversation(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, "room-1", conv.ID)
	assert.False(t, conv.IsGroup())
	assert.Equal(t, []domain.UserRef{{ID: "u1"}, {ID: "u2"}}, conv.Members)

	_, err = c.GetConversation(context.Background(), "nope")
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = c.GetConversation(context.Background(), "boom")
	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "exploded", se.Body)
}

func TestClient_SendMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/message", r.URL.Path)
		var req domain.SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "t-1", req.TempID)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"_id":     "m-1",
			"tempId":  req.TempID,
			"chat":    req.ChatID,
			"sender":  map[string]string{"_id": "u1", "fullName": "Ada"},
			"type":    req.Type,
			"content": req.Content,
			"status":  "sent",
		})
	})

	msg, err := c.SendMessage(context.Background(), domain.SendMessageRequest{ChatID: "c1", TempID: "t-1", Type: domain.MessageText, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", msg.ID)
	assert.Equal(t, "t-1", msg.TempID)
	assert.Equal(t, "Ada", msg.Sender.FullName)
	assert.Equal(t, domain.StatusSent, msg.Status)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return fn(r)
}

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (brokenBody) Close() error             { return nil }

func TestClient_UploadPartDrainFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Etag": []string{`"e1"`}},
			Body:       brokenBody{},
			Request:    r,
		}, nil
	})}
	c := api.NewClient("http://backend.test", "secret", time.Second, zerolog.New(&logs).Level(zerolog.DebugLevel), api.WithHTTPClient(hc))

	etag, err := c.UploadPart(context.Background(), "http://storage.test/part-1", strings.NewReader("data"), 4, "")
	require.NoError(t, err)
	assert.Equal(t, `"e1"`, etag)
	assert.Contains(t, logs.String(), "failed to drain storage response")
	assert.Contains(t, logs.String(), `"level":"debug"`)
}
