package transport

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/pushService/internal/database"
	"github.com/ds124wfegd/pushService/internal/dispatcher"
	"github.com/ds124wfegd/pushService/internal/entity"
	"github.com/ds124wfegd/pushService/internal/identity"
	"github.com/ds124wfegd/pushService/internal/service"
)

// vendorStub plays the browser vendors' push services for the whole
// HTTP stack: every delivery the dispatcher makes ends up here.
type vendorStub struct {
	mu       sync.Mutex
	requests []vendorRequest
	status   map[string]int // by endpoint, default 201
}

type vendorRequest struct {
	url    string
	body   []byte
	header http.Header
}

func (v *vendorStub) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	v.mu.Lock()
	v.requests = append(v.requests, vendorRequest{
		url:    req.URL.String(),
		body:   body,
		header: req.Header.Clone(),
	})
	v.mu.Unlock()

	status := v.status[req.URL.String()]
	if status == 0 {
		status = http.StatusCreated
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

func (v *vendorStub) byEndpoint(endpoint string) []vendorRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []vendorRequest
	for _, r := range v.requests {
		if r.url == endpoint {
			out = append(out, r)
		}
	}
	return out
}

type testStack struct {
	server *httptest.Server
	vendor *vendorStub
	repo   database.SubscriptionRepository
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	id, err := identity.New("mailto:ops@example.com", publicKey, privateKey)
	require.NoError(t, err)

	vendor := &vendorStub{status: map[string]int{}}
	repo := database.NewMemoryRepository()
	d := dispatcher.New(id, dispatcher.Config{}, vendor)

	subscriptionService := service.NewSubscriptionUseCase(repo)
	pushService := service.NewPushUseCase(repo, d, nil, nil)

	router := InitRoutes(
		NewSubscriptionHandler(subscriptionService),
		NewPushHandler(pushService),
		publicKey,
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testStack{server: server, vendor: vendor, repo: repo}
}

func (s *testStack) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (s *testStack) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func browserSubscription(t *testing.T, endpoint string) entity.Subscription {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	point := elliptic.Marshal(elliptic.P256(), priv.PublicKey.X, priv.PublicKey.Y)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return entity.Subscription{
		Endpoint: endpoint,
		Keys: entity.SubscriptionKeys{
			P256dh: base64.RawURLEncoding.EncodeToString(point),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
}

// A client subscribes, the operator sends, and the vendor receives one
// encrypted, VAPID-signed request.
func TestSubscribeThenSend(t *testing.T) {
	stack := newTestStack(t)
	endpoint := "https://push.example.com/ch/1"

	resp := stack.post(t, "/api/v1/subscribe", browserSubscription(t, endpoint))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = stack.post(t, "/api/v1/send", map[string]string{"message": "deploy finished"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report entity.SendReport
	decodeBody(t, resp, &report)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Delivered)

	requests := stack.vendor.byEndpoint(endpoint)
	require.Len(t, requests, 1)
	assert.Equal(t, "aes128gcm", requests[0].header.Get("Content-Encoding"))
	assert.Contains(t, requests[0].header.Get("Authorization"), "vapid t=")
	assert.NotContains(t, string(requests[0].body), "deploy finished")
}

// Two clients get independently encrypted copies; after one
// unsubscribes, only the other is contacted.
func TestTwoClientsThenUnsubscribe(t *testing.T) {
	stack := newTestStack(t)
	first := "https://push.example.com/ch/1"
	second := "https://push.example.com/ch/2"

	for _, endpoint := range []string{first, second} {
		resp := stack.post(t, "/api/v1/subscribe", browserSubscription(t, endpoint))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := stack.post(t, "/api/v1/send", map[string]string{"message": "ping"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report entity.SendReport
	decodeBody(t, resp, &report)
	assert.Equal(t, 2, report.Delivered)

	firstReqs := stack.vendor.byEndpoint(first)
	secondReqs := stack.vendor.byEndpoint(second)
	require.Len(t, firstReqs, 1)
	require.Len(t, secondReqs, 1)
	assert.NotEqual(t, firstReqs[0].body, secondReqs[0].body,
		"each client's copy is encrypted under its own keys")

	resp = stack.post(t, "/api/v1/unsubscribe", map[string]string{"endpoint": first})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = stack.post(t, "/api/v1/send", map[string]string{"message": "ping again"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &report)
	assert.Equal(t, 1, report.Total)

	assert.Len(t, stack.vendor.byEndpoint(first), 1, "no new request after unsubscribing")
	assert.Len(t, stack.vendor.byEndpoint(second), 2)
}

// A vendor reporting the channel gone gets the subscription pruned from
// the registry.
func TestGonePrunesRegistry(t *testing.T) {
	stack := newTestStack(t)
	dead := "https://push.example.com/ch/dead"
	alive := "https://push.example.com/ch/alive"
	stack.vendor.status[dead] = http.StatusGone

	for _, endpoint := range []string{dead, alive} {
		resp := stack.post(t, "/api/v1/subscribe", browserSubscription(t, endpoint))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := stack.post(t, "/api/v1/send", map[string]string{"message": "ping"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report entity.SendReport
	decodeBody(t, resp, &report)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Gone)

	resp = stack.get(t, "/api/v1/subscriptions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Endpoints []string `json:"endpoints"`
		Count     int      `json:"count"`
	}
	decodeBody(t, resp, &listing)
	assert.Equal(t, 1, listing.Count)
	assert.Equal(t, []string{alive}, listing.Endpoints)
}

func TestSendWithoutSubscribers(t *testing.T) {
	stack := newTestStack(t)
	resp := stack.post(t, "/api/v1/send", map[string]string{"message": "into the void"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, stack.vendor.requests)
}

func TestSendWithoutMessage(t *testing.T) {
	stack := newTestStack(t)
	resp := stack.post(t, "/api/v1/send", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubscribeRejectsBadRecord(t *testing.T) {
	stack := newTestStack(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "no endpoint", body: map[string]interface{}{
			"keys": map[string]string{"p256dh": "x", "auth": "y"},
		}},
		{name: "no keys", body: map[string]interface{}{
			"endpoint": "https://push.example.com/ch/1",
		}},
		{name: "undecodable key material", body: map[string]interface{}{
			"endpoint": "https://push.example.com/ch/1",
			"keys":     map[string]string{"p256dh": "????", "auth": "dGVzdA"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := stack.post(t, "/api/v1/subscribe", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp := stack.get(t, "/api/v1/subscriptions")
	var listing struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &listing)
	assert.Zero(t, listing.Count)
}

func TestVapidPublicKeyEndpoint(t *testing.T) {
	stack := newTestStack(t)
	resp := stack.get(t, "/api/v1/vapid-public-key")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		PublicKey string `json:"public_key"`
	}
	decodeBody(t, resp, &body)

	key, err := entity.DecodeKey(body.PublicKey)
	require.NoError(t, err)
	assert.Len(t, key, 65, "clients receive the uncompressed application server key")
}

func TestHealthEndpoint(t *testing.T) {
	stack := newTestStack(t)
	resp := stack.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}
