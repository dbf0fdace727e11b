package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"leadflow/internal/model"

	"go.uber.org/zap"
)

// Config carries everything a Session needs up front. Nothing is read from
// ambient storage or environment at call time.
type Config struct {
	BaseURL      string
	Passcode     string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollCeiling  time.Duration
	Log          *zap.Logger
}

const (
	defaultPollInterval = 1500 * time.Millisecond
	defaultPollCeiling  = 20 * time.Minute
)

// Session holds the authenticated state for one operator. Login verifies the
// passcode against the server; Logout drops it. All Clients built on a Session
// share its credentials.
type Session struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger

	pollInterval time.Duration
	pollCeiling  time.Duration

	mu            sync.RWMutex
	passcode      string
	authenticated bool
}

func NewSession(cfg Config) *Session {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollCeiling <= 0 {
		cfg.PollCeiling = defaultPollCeiling
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Session{
		baseURL:      cfg.BaseURL,
		http:         cfg.HTTPClient,
		log:          cfg.Log,
		pollInterval: cfg.PollInterval,
		pollCeiling:  cfg.PollCeiling,
		passcode:     cfg.Passcode,
	}
}

// Login verifies the passcode against an authenticated endpoint and stores it
// on success.
func (s *Session) Login(ctx context.Context, passcode string) error {
	probe := &Client{session: &Session{
		baseURL:  s.baseURL,
		http:     s.http,
		log:      s.log,
		passcode: passcode,
	}}
	if _, err := probe.listLeadsRemote(ctx, model.LeadFilter{Limit: 1}); err != nil {
		return err
	}

	s.mu.Lock()
	s.passcode = passcode
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

// Logout clears the stored credential.
func (s *Session) Logout() {
	s.mu.Lock()
	s.passcode = ""
	s.authenticated = false
	s.mu.Unlock()
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) currentPasscode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passcode
}
