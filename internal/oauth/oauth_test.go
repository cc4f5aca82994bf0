package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"shorturl-service/internal/errs"
	"shorturl-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEmails struct {
	list  []GitHubEmail
	err   error
	calls int
}

func (s *staticEmails) ListEmails(context.Context) ([]GitHubEmail, error) {
	s.calls++
	return s.list, s.err
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("google")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGoogle, p)

	p, err = ParseProvider("GitHub")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGitHub, p)

	_, err = ParseProvider("facebook")
	assert.ErrorIs(t, err, errs.ErrUnsupportedProvider)
	_, err = ParseProvider("local")
	assert.ErrorIs(t, err, errs.ErrUnsupportedProvider)
}

func TestExtract_Google(t *testing.T) {
	attrs := Attributes{
		"sub":     "1098",
		"name":    "Alice Doe",
		"email":   "alice@example.com",
		"picture": "https://img.example/alice.png",
	}

	p, err := Extract(context.Background(), model.ProviderGoogle, attrs, nil)
	require.NoError(t, err)
	assert.Equal(t, &Profile{
		ExternalID:  "1098",
		DisplayName: "Alice Doe",
		Email:       "alice@example.com",
		AvatarURL:   "https://img.example/alice.png",
	}, p)
}

func TestExtract_GitHubNumericIDAndLoginFallback(t *testing.T) {
	attrs := Attributes{
		"id":         json.Number("583231"),
		"login":      "octocat",
		"name":       "",
		"email":      "octo@example.com",
		"avatar_url": "https://avatars.example/u/583231",
	}
	emails := &staticEmails{}

	p, err := Extract(context.Background(), model.ProviderGitHub, attrs, emails)
	require.NoError(t, err)
	assert.Equal(t, "583231", p.ExternalID)
	assert.Equal(t, "octocat", p.DisplayName)
	assert.Equal(t, "octo@example.com", p.Email)
	assert.Equal(t, "https://avatars.example/u/583231", p.AvatarURL)
	assert.Zero(t, emails.calls, "主资料已有邮箱时不应查询邮箱列表")
}

func TestExtract_GitHubFloatID(t *testing.T) {
	attrs := Attributes{"id": float64(12345678), "name": "Octo", "email": "o@example.com"}

	p, err := Extract(context.Background(), model.ProviderGitHub, attrs, nil)
	require.NoError(t, err)
	assert.Equal(t, "12345678", p.ExternalID)
}

func TestExtract_GitHubSecondaryEmailLookup(t *testing.T) {
	attrs := Attributes{"id": json.Number("1"), "login": "octocat"}
	emails := &staticEmails{list: []GitHubEmail{
		{Email: "a@x.com", Primary: false, Verified: true},
		{Email: "b@x.com", Primary: true, Verified: true},
	}}

	p, err := Extract(context.Background(), model.ProviderGitHub, attrs, emails)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", p.Email)
	assert.Equal(t, 1, emails.calls)
}

func TestExtract_MissingEmailIsInvalidProfile(t *testing.T) {
	_, err := Extract(context.Background(), model.ProviderGoogle, Attributes{"sub": "1"}, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidProfile)

	_, err = Extract(context.Background(), model.ProviderGitHub, Attributes{"id": json.Number("1")}, &staticEmails{})
	assert.ErrorIs(t, err, errs.ErrInvalidProfile)
}

func TestExtract_EmailLookupFailure(t *testing.T) {
	lookupErr := errors.New("boom")
	_, err := Extract(context.Background(), model.ProviderGitHub, Attributes{"id": json.Number("1")}, &staticEmails{err: lookupErr})
	assert.ErrorIs(t, err, lookupErr)
	assert.ErrorIs(t, err, errs.ErrInvalidProfile)
}

func TestExtract_UnsupportedProvider(t *testing.T) {
	_, err := Extract(context.Background(), model.ProviderLocal, Attributes{"email": "a@b.c"}, nil)
	assert.ErrorIs(t, err, errs.ErrUnsupportedProvider)
}

func TestSelectEmail(t *testing.T) {
	tests := []struct {
		name   string
		emails []GitHubEmail
		want   string
	}{
		{"主邮箱且已验证优先", []GitHubEmail{
			{Email: "a@x.com", Verified: true},
			{Email: "b@x.com", Primary: true, Verified: true},
		}, "b@x.com"},
		{"未验证的主邮箱不优先", []GitHubEmail{
			{Email: "p@x.com", Primary: true},
			{Email: "v@x.com", Verified: true},
		}, "v@x.com"},
		{"都未验证取第一个", []GitHubEmail{
			{Email: "first@x.com"},
			{Email: "second@x.com", Primary: true},
		}, "first@x.com"},
		{"空列表", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectEmail(tt.emails))
		})
	}
}

func TestGitHubEmailClient_ListEmails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/emails", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"email":"a@x.com","primary":false,"verified":true},{"email":"b@x.com","primary":true,"verified":true}]`))
	}))
	defer srv.Close()

	list, err := NewGitHubEmailClient(srv.Client(), srv.URL).ListEmails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", SelectEmail(list))
}

func TestGitHubEmailClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGitHubEmailClient(srv.Client(), srv.URL).ListEmails(context.Background())
	assert.Error(t, err)
}

// fakeGitHub 模拟 GitHub 的 token、/user 和 /user/emails 接口
func fakeGitHub(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":583231,"login":"octocat","name":null,"avatar_url":"https://avatars.example/1"}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"email":"a@x.com","primary":false,"verified":true},{"email":"b@x.com","primary":true,"verified":true}]`))
	})
	return httptest.NewServer(mux)
}

func TestClient_FetchProfileGitHub(t *testing.T) {
	srv := fakeGitHub(t)
	defer srv.Close()

	c := NewClient(map[model.AuthProvider]ProviderConfig{
		model.ProviderGitHub: {
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/oauth2/callback/github",
			AuthURL:      srv.URL + "/login/oauth/authorize",
			TokenURL:     srv.URL + "/login/oauth/access_token",
			APIBase:      srv.URL,
		},
	})

	p, err := c.FetchProfile(context.Background(), model.ProviderGitHub, "the-code")
	require.NoError(t, err)
	assert.Equal(t, &Profile{
		ExternalID:  "583231",
		DisplayName: "octocat",
		Email:       "b@x.com",
		AvatarURL:   "https://avatars.example/1",
	}, p)
}

func TestClient_AuthCodeURL(t *testing.T) {
	c := NewClient(map[model.AuthProvider]ProviderConfig{
		model.ProviderGoogle: {ClientID: "gid", RedirectURL: "http://localhost/oauth2/callback/google"},
		model.ProviderGitHub: {ClientID: ""},
	})
	assert.Equal(t, []model.AuthProvider{model.ProviderGoogle}, c.Providers())

	raw, err := c.AuthCodeURL(model.ProviderGoogle, "state-1")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "gid", u.Query().Get("client_id"))
	assert.Equal(t, "state-1", u.Query().Get("state"))

	_, err = c.AuthCodeURL(model.ProviderGitHub, "state-1")
	assert.ErrorIs(t, err, errs.ErrUnsupportedProvider)
}

func TestTag(t *testing.T) {
	assert.Equal(t, "github", Tag(model.ProviderGitHub))
	p, err := ParseProvider(Tag(model.ProviderGoogle))
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGoogle, p)
}
