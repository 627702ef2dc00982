package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func TestTokenValidator(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := func() *jwt.Builder {
		return jwt.NewBuilder().
			Issuer("aigov-api").
			Audience([]string{"aigov-web"}).
			Subject("user-1").
			IssuedAt(now).
			NotBefore(now).
			Expiration(now.Add(time.Minute))
	}
	validator := TokenValidator{
		Issuer:         "aigov-api",
		Audience:       "aigov-web",
		ClockSkew:      time.Second,
		Algorithm:      jwa.HS256,
		RequiredClaims: []string{jwt.SubjectKey},
	}

	cases := []struct {
		name      string
		build     func() (jwt.Token, error)
		algorithm jwa.SignatureAlgorithm
		wantErr   bool
	}{
		{name: "valid", build: base().Build, algorithm: jwa.HS256},
		{name: "issuer mismatch", build: base().Issuer("other").Build, algorithm: jwa.HS256, wantErr: true},
		{name: "audience mismatch", build: base().Audience([]string{"mobile"}).Build, algorithm: jwa.HS256, wantErr: true},
		{name: "expired", build: base().Expiration(now.Add(-time.Minute)).Build, algorithm: jwa.HS256, wantErr: true},
		{name: "not yet valid", build: base().NotBefore(now.Add(5 * time.Minute)).Build, algorithm: jwa.HS256, wantErr: true},
		{name: "algorithm mismatch", build: base().Build, algorithm: jwa.RS256, wantErr: true},
		{name: "missing algorithm", build: base().Build, algorithm: "", wantErr: true},
		{
			name: "missing subject",
			build: func() (jwt.Token, error) {
				return jwt.NewBuilder().
					Issuer("aigov-api").
					Audience([]string{"aigov-web"}).
					Expiration(now.Add(time.Minute)).
					Build()
			},
			algorithm: jwa.HS256,
			wantErr:   true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := tc.build()
			require.NoError(t, err)
			err = validator.Validate(tok, tc.algorithm, now)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	require.Error(t, validator.Validate(nil, jwa.HS256, now))
}
