package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// ServiceCredential is the long-lived service principal used to open sessions.
type ServiceCredential struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	AuthEndpoint string
}

// Authenticator performs the password-grant login and replaces the session in
// its store. Concurrent callers share a single in-flight token request.
type Authenticator struct {
	cred   ServiceCredential
	store  *SessionStore
	client *http.Client
	log    *zap.Logger
	flight singleflight.Group
}

// NewAuthenticator builds an Authenticator. A nil client falls back to
// http.DefaultClient.
func NewAuthenticator(cred ServiceCredential, store *SessionStore, client *http.Client, log *zap.Logger) *Authenticator {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{
		cred:   cred,
		store:  store,
		client: client,
		log:    log,
	}
}

// Authenticate opens a fresh session and stores it. Errors are returned as
// *AuthError.
func (a *Authenticator) Authenticate(ctx context.Context) (Session, error) {
	// The shared request must not die with whichever caller started it.
	ch := a.flight.DoChan("session", func() (any, error) {
		return a.login(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return Session{}, &AuthError{Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Session{}, res.Err
		}
		return res.Val.(Session), nil
	}
}

func (a *Authenticator) login(ctx context.Context) (Session, error) {
	if strings.TrimSpace(a.cred.AuthEndpoint) == "" {
		return Session{}, &AuthError{Err: errors.New("auth endpoint is not configured")}
	}

	cfg := oauth2.Config{
		ClientID:     a.cred.ClientID,
		ClientSecret: a.cred.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  a.cred.AuthEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)

	token, err := cfg.PasswordCredentialsToken(ctx, a.cred.Username, a.cred.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			a.log.Error("crm token request rejected",
				zap.Int("status", retrieveErr.Response.StatusCode),
				zap.ByteString("body", retrieveErr.Body),
			)
		}
		return Session{}, &AuthError{Err: err}
	}

	instanceURL, _ := token.Extra("instance_url").(string)
	if strings.TrimSpace(instanceURL) == "" {
		return Session{}, &AuthError{Err: fmt.Errorf("token response has no instance_url")}
	}

	sess := Session{InstanceURL: instanceURL, AccessToken: token.AccessToken}
	a.store.Store(sess)
	a.log.Info("crm session established", zap.String("instance_url", instanceURL))

	sess, _ = a.store.Load()
	return sess, nil
}
