package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutSubscription_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPut, "/api/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	endpoint := "https://push.example.com/send/abc%3D%3D"

	w := env.do(http.MethodPut, "/api/subscriptions",
		`{"endpoint":"`+endpoint+`","p256dh":"key","auth":"secret","label":"caixa"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// Re-registering the same endpoint replaces its keys.
	w = env.do(http.MethodPut, "/api/subscriptions",
		`{"endpoint":"`+endpoint+`","p256dh":"key2","auth":"secret2","label":"caixa"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	subs, err := env.subs.List(t.Context())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "key2", subs[0].P256DH)

	w = env.do(http.MethodGet, "/api/subscriptions?endpoint="+endpoint, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"label":"caixa"`)

	w = env.do(http.MethodDelete, "/api/subscriptions", `{"endpoint":"`+endpoint+`"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/api/subscriptions?endpoint="+url.QueryEscape("missing"), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSubscription_RequiresEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	env.handler.webpush = &webpush.Options{VAPIDPublicKey: "BPub", Subscriber: "mailto:staff@example.com"}
	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/vapid_public_key", bytes.NewBuffer(nil))
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPub","subject":"mailto:staff@example.com"}`, w.Body.String())
}
