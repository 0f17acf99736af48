package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRateLimit(t *testing.T) {
	reset := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	err := classify("followers", &github.RateLimitError{
		Rate: github.Rate{Reset: github.Timestamp{Time: reset}},
	})
	assert.Equal(t, KindRateLimited, KindOf(err))
	resetAt, _ := Hints(err)
	assert.True(t, resetAt.Equal(reset))
	assert.True(t, Retryable(err))
}

func TestClassifyAbuseRateLimit(t *testing.T) {
	after := 45 * time.Second
	err := classify("events", &github.AbuseRateLimitError{RetryAfter: &after})
	assert.Equal(t, KindRateLimited, KindOf(err))
	_, retryAfter := Hints(err)
	assert.Equal(t, after, retryAfter)
}

func TestClassifyStatusCodes(t *testing.T) {
	cases := []struct {
		status    int
		want      Kind
		retryable bool
	}{
		{401, KindBadCredentials, false},
		{403, KindForbidden, false},
		{404, KindNotFound, false},
		{410, KindNotFound, false},
		{500, KindTransient, true},
		{502, KindTransient, true},
		{422, KindUnknown, true},
	}
	for _, tc := range cases {
		err := classify("profile", &github.ErrorResponse{
			Response: &http.Response{StatusCode: tc.status},
		})
		assert.Equalf(t, tc.want, KindOf(err), "status %d", tc.status)
		assert.Equalf(t, tc.retryable, Retryable(err), "status %d retryable", tc.status)
	}
}

func TestClassifyDeadline(t *testing.T) {
	err := classify("repos", context.DeadlineExceeded)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestClassifySubstringFallback(t *testing.T) {
	for _, msg := range []string{
		"read tcp: connection reset by peer",
		"dial tcp: connection refused",
		"write: broken pipe",
		"unexpected EOF",
		"request timeout exceeded",
	} {
		err := classify("x", errors.New(msg))
		assert.Equalf(t, KindTransient, KindOf(err), "message %q", msg)
	}

	err := classify("x", errors.New("something else entirely"))
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.True(t, Retryable(err), "unknown errors stay retryable")
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, classify("op", nil))
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Kind: KindNotFound, Op: "profile", Err: errors.New("404 gone")}
	assert.Contains(t, err.Error(), "profile")
	assert.Contains(t, err.Error(), "not-found")
	assert.ErrorIs(t, err, err.Err)
}

func TestPaginateDrainsPages(t *testing.T) {
	pages := map[int][]string{
		0: {"a", "b"},
		2: {"c", "d"},
		3: {"e"},
	}
	got, err := paginate(context.Background(), "followers", 2,
		func(opts github.ListOptions) ([]string, *github.Response, error) {
			items := pages[opts.Page]
			next := 0
			switch opts.Page {
			case 0:
				next = 2
			case 2:
				next = 3
			}
			return items, &github.Response{NextPage: next}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestPaginatePropagatesClassifiedError(t *testing.T) {
	_, err := paginate(context.Background(), "followers", 2,
		func(opts github.ListOptions) ([]string, *github.Response, error) {
			return nil, nil, &github.ErrorResponse{Response: &http.Response{StatusCode: 404}}
		})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestProfileDisplayName(t *testing.T) {
	assert.Equal(t, "monica (Monica)", Profile{Login: "monica", Name: "Monica"}.DisplayName())
	assert.Equal(t, "monica", Profile{Login: "monica"}.DisplayName())
}

func TestIssueLabel(t *testing.T) {
	i := Issue{Number: 17, Title: "flaky test", Author: "bob"}
	assert.Equal(t, "#17 flaky test (bob)", i.Label())
}

func TestAPIToHTMLURL(t *testing.T) {
	assert.Equal(t,
		"https://github.com/monica/repo",
		apiToHTMLURL("https://api.github.com/repos/monica/repo"))
	// Already an HTML URL stays untouched.
	assert.Equal(t,
		"https://github.com/monica/repo",
		apiToHTMLURL("https://github.com/monica/repo"))
}

func TestDecodeEventUnknownType(t *testing.T) {
	raw := &github.Event{
		ID:   github.String("123"),
		Type: github.String("SponsorshipEvent"),
	}
	ev := decodeEvent(raw)
	assert.Equal(t, "123", ev.ID)
	assert.IsType(t, UnknownPayload{}, ev.Payload)
}

func TestWithPerPage(t *testing.T) {
	assert.Equal(t, 50, New("", WithPerPage(50)).perPage)
	assert.Equal(t, 100, New("").perPage, "default page size")
	assert.Equal(t, 100, New("", WithPerPage(0)).perPage, "non-positive keeps the default")
}

func TestCheckConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gh := New("", WithHTTPClient(srv.Client()))
	assert.NoError(t, gh.CheckConnectivity(context.Background(), srv.URL))

	srv.Close()
	err := gh.CheckConnectivity(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, Retryable(err))
}

func TestSetTokenSwapsClient(t *testing.T) {
	gh := New("tok-a")
	before := gh.api
	gh.SetToken("tok-b")
	assert.NotSame(t, before, gh.api, "token swap must rebuild the API client")
}
