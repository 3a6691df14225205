package service

import (
	"errors"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

type GoogleVerifier interface {
	Verify(idToken string) (*GoogleIdentity, error)
}

// NewGoogleVerifier: nil kalau client id kosong (login Google nonaktif).
func NewGoogleVerifier(clientID string) GoogleVerifier {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil
	}
	return &googleIDTokenVerifier{clientID: clientID}
}

type googleIDTokenVerifier struct {
	clientID string
}

func (g *googleIDTokenVerifier) Verify(idToken string) (*GoogleIdentity, error) {
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{g.clientID}); err != nil {
		return nil, err
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, err
	}
	if claimSet.Sub == "" || claimSet.Email == "" {
		return nil, errors.New("google token without subject or email")
	}
	return &GoogleIdentity{Subject: claimSet.Sub, Email: claimSet.Email, Name: claimSet.Name}, nil
}
