package clientrt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestClientSecretCredential(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-` + r.Form.Get("scope") + `","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	cred := NewClientSecretCredential(srv.URL, "id", "secret")
	ctx := context.Background()

	tok, err := cred.GetToken(ctx, "https://svc.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "tok-https://svc.example.com/", tok.Token)
	assert.True(t, tok.ExpiresOn.After(time.Now()))

	again, err := cred.GetToken(ctx, "https://svc.example.com/")
	require.NoError(t, err)
	assert.Equal(t, tok.Token, again.Token)
	assert.EqualValues(t, 1, calls.Load(), "token should be reused for the same scopes")

	other, err := cred.GetToken(ctx, "https://other.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "tok-https://other.example.com/", other.Token)
	assert.EqualValues(t, 2, calls.Load())
}

func TestTokenSourceCredential(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	cred := TokenSourceCredential{Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc", Expiry: expiry})}
	tok, err := cred.GetToken(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, AccessToken{Token: "abc", ExpiresOn: expiry}, tok)

	_, err = TokenSourceCredential{}.GetToken(context.Background())
	assert.Error(t, err)
}
