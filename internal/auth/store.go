// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth implements account credentials and bearer-token
// authentication against the embedded store. The first login against an
// empty store bootstraps the administrator account; subsequent logins
// verify the stored Argon2id hash and issue a fresh token each time.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"muralgen/internal/kv"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// treeName is the store partition holding accounts, keyed by username.
const treeName = "accounts"

var (
	// ErrPasswordTooShort is a validation failure; its message is safe to
	// show to the caller.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)

	// ErrInvalidCredentials is the generic denial for every authentication
	// failure. It deliberately does not distinguish an unknown username
	// from a wrong password.
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// Status messages prepended to the token on the two provisioning paths.
const (
	MsgAdminCreated = "Admin Account Created"
	MsgPasswordSet  = "Password Set"
)

// Account is one stored user record, keyed by username.
type Account struct {
	Admin        bool      `json:"admin"`
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"` // empty = username reserved, password not yet set
	Tokens       []Token   `json:"tokens"`
}

// LoginResult carries the plaintext token issued by a successful login
// and an optional human-readable status message ("" for a plain login).
type LoginResult struct {
	Token   string
	Message string
}

// Store owns the accounts partition.
type Store struct {
	db       *kv.Store
	accounts *kv.Tree
	logger   *slog.Logger
}

// NewStore creates the account store on the shared database handle.
func NewStore(db *kv.Store) *Store {
	return &Store{
		db:       db,
		accounts: db.Tree(treeName),
		logger:   slog.Default().With("component", "auth"),
	}
}

// Login authenticates username/password and issues a new bearer token.
//
// Three transitions, in order:
//   - no accounts exist: create the first account as admin;
//   - account exists with no password: set the password;
//   - otherwise: verify the password against the stored hash.
//
// The whole read-modify-write cycle runs inside the store's critical
// section so two concurrent logins for the same username cannot lose an
// issued token.
func (s *Store) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res *LoginResult
	err := s.db.Update(func() error {
		n, err := s.accounts.Len(ctx)
		if err != nil {
			return err
		}

		if n == 0 {
			res, err = s.bootstrapAdmin(ctx, username, password)
			return err
		}

		raw, err := s.accounts.Get(ctx, []byte(username))
		if errors.Is(err, kv.ErrNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		var account Account
		if err := json.Unmarshal(raw, &account); err != nil {
			return fmt.Errorf("decode account %q: %w", username, err)
		}

		if account.PasswordHash == "" {
			res, err = s.setPassword(ctx, &account, password)
			return err
		}

		if !verifyPassword(password, account.PasswordHash) {
			return ErrInvalidCredentials
		}

		tokenEntry, value, err := generateToken()
		if err != nil {
			return err
		}
		account.Tokens = append(account.Tokens, tokenEntry)
		if err := s.writeAccount(ctx, &account); err != nil {
			return err
		}
		res = &LoginResult{Token: value}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", "username", username, "message", res.Message)
	return res, nil
}

// bootstrapAdmin creates the first-ever account with admin rights.
func (s *Store) bootstrapAdmin(ctx context.Context, username, password string) (*LoginResult, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	tokenEntry, value, err := generateToken()
	if err != nil {
		return nil, err
	}

	account := Account{
		Admin:        true,
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Tokens:       []Token{tokenEntry},
	}
	if err := s.writeAccount(ctx, &account); err != nil {
		return nil, err
	}

	return &LoginResult{Token: value, Message: MsgAdminCreated}, nil
}

// setPassword provisions a credential for a pre-seeded account whose
// password has not been set yet.
func (s *Store) setPassword(ctx context.Context, account *Account, password string) (*LoginResult, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	tokenEntry, value, err := generateToken()
	if err != nil {
		return nil, err
	}

	account.PasswordHash = hash
	account.Tokens = append(account.Tokens, tokenEntry)
	if err := s.writeAccount(ctx, account); err != nil {
		return nil, err
	}

	return &LoginResult{Token: value, Message: MsgPasswordSet}, nil
}

// VerifyToken scans every account for an exact token match. On a match
// the token's last_used timestamp is refreshed and persisted. Linear in
// the total number of tokens; fine at personal-service volume.
func (s *Store) VerifyToken(ctx context.Context, candidate string) (bool, error) {
	if len(candidate) != TokenLength {
		return false, nil
	}

	valid := false
	err := s.db.Update(func() error {
		var matched *Account
		err := s.accounts.ForEach(ctx, func(_, raw []byte) error {
			var account Account
			if err := json.Unmarshal(raw, &account); err != nil {
				return fmt.Errorf("decode account: %w", err)
			}
			for i := range account.Tokens {
				if account.Tokens[i].Value == candidate {
					account.Tokens[i].LastUsed = time.Now().UTC()
					matched = &account
					return errStopScan
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopScan) {
			return err
		}
		if matched == nil {
			return nil
		}

		if err := s.writeAccount(ctx, matched); err != nil {
			return err
		}
		valid = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}

// errStopScan terminates the account scan early once a token matched.
var errStopScan = errors.New("stop scan")

// Get returns the stored account for username, or kv.ErrNotFound.
func (s *Store) Get(ctx context.Context, username string) (*Account, error) {
	raw, err := s.accounts.Get(ctx, []byte(username))
	if err != nil {
		return nil, err
	}
	var account Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode account %q: %w", username, err)
	}
	return &account, nil
}

// Reserve creates an account with no password, so username can log in
// later and set one. No-op error if the username is already taken.
func (s *Store) Reserve(ctx context.Context, username string) error {
	return s.db.Update(func() error {
		if _, err := s.accounts.Get(ctx, []byte(username)); err == nil {
			return fmt.Errorf("username %q already exists", username)
		} else if !errors.Is(err, kv.ErrNotFound) {
			return err
		}

		account := Account{
			ID:       uuid.New(),
			Username: username,
		}
		return s.writeAccount(ctx, &account)
	})
}

// writeAccount persists one account record as a single atomic write.
func (s *Store) writeAccount(ctx context.Context, account *Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account %q: %w", account.Username, err)
	}
	return s.accounts.Put(ctx, []byte(account.Username), raw)
}
