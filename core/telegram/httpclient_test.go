package telegram

import (
	"bytes"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransportRetriesDial(t *testing.T) {
	calls := 0
	var bodies []string
	client := BuildHTTPClient(HTTPClientOptions{Retries: 2, Backoff: time.Millisecond, Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		buf := new(bytes.Buffer)
		if r.Body != nil {
			_, _ = buf.ReadFrom(r.Body)
		}
		bodies = append(bodies, buf.String())
		if calls < 3 {
			return nil, &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
	})})

	resp, err := client.Post("http://example.invalid/sendMessage", "application/json", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, 3, calls)
	require.Equal(t, []string{`{"a":1}`, `{"a":1}`, `{"a":1}`}, bodies)
}

func TestRetryTransportStopsOnPermanent(t *testing.T) {
	calls := 0
	client := BuildHTTPClient(HTTPClientOptions{Backoff: time.Millisecond, Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("tls: bad certificate")
	})})
	_, err := client.Get("http://example.invalid/")
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestClientTimeoutCoversLongPoll(t *testing.T) {
	require.Equal(t, defaultClientTimeout, BuildHTTPClient(HTTPClientOptions{}).Timeout)
	require.Equal(t, 70*time.Second, BuildHTTPClient(HTTPClientOptions{LongPollTimeout: time.Minute}).Timeout)
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://x/hook"}})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	require.Equal(t, "0.0.0.0:8443", wh.Listen)
	require.Equal(t, "https://x/hook", wh.Endpoint.PublicURL)

	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, DefaultLongPollTimeout, lp.Timeout)
	require.Equal(t, []string{"message"}, lp.AllowedUpdates)
}
