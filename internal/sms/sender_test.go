package sms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSID   = "AC0123456789abcdef0123456789abcdef"
	testToken = "token"
)

type captured struct {
	method, path, contentType, userAgent, user, pass string
	authOK                                           bool
	body                                             string
}

func stubTwilio(t *testing.T, status int, respBody string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.method = r.Method
		c.path = r.URL.Path
		c.contentType = r.Header.Get("Content-Type")
		c.userAgent = r.UserAgent()
		c.user, c.pass, c.authOK = r.BasicAuth()
		c.body = string(b)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestSendCreated(t *testing.T) {
	srv, got := stubTwilio(t, http.StatusCreated, `{"sid":"SM123","status":"queued"}`)
	s := NewTwilioSender(testSID, testToken, WithBaseURL(srv.URL+"/"))

	res, err := s.Send(context.Background(), Request{
		From: "+15550001234",
		To:   "+15551234567",
		Body: "Hello world & more",
	})
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, `{"sid":"SM123","status":"queued"}`, res.Body)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/2010-04-01/Accounts/"+testSID+"/Messages.json", got.path)
	assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	assert.Equal(t, DefaultUserAgent, got.userAgent)
	assert.True(t, got.authOK)
	assert.Equal(t, testSID, got.user)
	assert.Equal(t, testToken, got.pass)
	assert.Equal(t, "To=%2B15551234567&From=%2B15550001234&Body=Hello%20world%20%26%20more", got.body)

	form, err := url.ParseQuery(got.body)
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", form.Get("To"))
	assert.Equal(t, "Hello world & more", form.Get("Body"))
}

func TestSendNotCreated(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		body := `{"code":20003,"message":"Authenticate"}`
		srv, _ := stubTwilio(t, status, body)
		s := NewTwilioSender(testSID, testToken, WithBaseURL(srv.URL))

		res, err := s.Send(context.Background(), Request{From: "+15550001234", To: "+15551234567", Body: "x"})
		require.NoError(t, err, "status %d", status)
		assert.False(t, res.Succeeded)
		assert.Equal(t, status, res.StatusCode)
		assert.Equal(t, body, res.Body)

		var apiErr *APIError
		require.ErrorAs(t, Check(res, err), &apiErr)
		assert.Equal(t, status, apiErr.Result.StatusCode)
	}
}

func TestSendCustomUserAgent(t *testing.T) {
	srv, got := stubTwilio(t, http.StatusCreated, `{}`)
	s := NewTwilioSender(testSID, testToken, WithBaseURL(srv.URL), WithUserAgent("relay-test/2"))

	_, err := s.Send(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "relay-test/2", got.userAgent)
	assert.Equal(t, "To=&From=&Body=", got.body)
}

type failingDoer struct{ err error }

func (d failingDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

func TestSendTransportError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	s := NewTwilioSender(testSID, testToken, WithHTTPClient(failingDoer{err: cause}))

	res, err := s.Send(context.Background(), Request{From: "+15550001234", To: "+15551234567", Body: "x"})

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, res.StatusCode)
	assert.False(t, res.Succeeded)
	assert.Same(t, err, Check(res, err))
}

func TestSendUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	s := NewTwilioSender(testSID, testToken, WithBaseURL(base))
	_, err := s.Send(context.Background(), Request{To: "+15551234567"})

	var tErr *TransportError
	assert.ErrorAs(t, err, &tErr)
}

type recordingDoer struct {
	req *http.Request
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.req = req
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(strings.NewReader(`{"sid":"SM1"}`)),
	}, nil
}

func TestSendThroughInjectedTransport(t *testing.T) {
	d := &recordingDoer{}
	s := NewTwilioSender(testSID, testToken, WithHTTPClient(d))

	res, err := s.Send(context.Background(), Request{From: "+15550001234", To: "+15551234567", Body: "hi"})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, "https://api.twilio.com/2010-04-01/Accounts/"+testSID+"/Messages.json", d.req.URL.String())
	assert.Equal(t, "application/json", d.req.Header.Get("Accept"))
}

func TestEncodeForm(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{
			Request{To: "+1", From: "+2", Body: "plain"},
			"To=%2B1&From=%2B2&Body=plain",
		},
		{
			Request{Body: "a-b_c.d~e"},
			"To=&From=&Body=a-b_c.d~e",
		},
		{
			Request{Body: "a+b c=d/e?f"},
			"To=&From=&Body=a%2Bb%20c%3Dd%2Fe%3Ff",
		},
		{
			Request{Body: "héllo\n"},
			"To=&From=&Body=h%C3%A9llo%0A",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeForm(tt.req))
	}
}

func TestValidAccountSID(t *testing.T) {
	assert.True(t, ValidAccountSID(testSID))
	assert.False(t, ValidAccountSID(""))
	assert.False(t, ValidAccountSID("AC123"))
	assert.False(t, ValidAccountSID("XX0123456789abcdef0123456789abcdef"))
	assert.False(t, ValidAccountSID("ac0123456789abcdef0123456789abcdef"))
}
