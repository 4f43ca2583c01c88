/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package auth answers "who is making this request". Authenticators attach
// the resolved identity to the request context; authorization decisions over
// that identity live in the authz package.
package auth

import (
	"context"
	"net/http"

	"github.com/wso2/restkit/internal/system/error/resterror"
)

type contextKey string

const identityKey contextKey = "restkit.identity"

// Identity is the authenticated principal of a request.
type Identity struct {
	Username string
	// Anonymous is true when no credentials were presented.
	Anonymous bool
}

// WithIdentity attaches the identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored in the context, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Authenticator validates a request's credentials.
type Authenticator interface {
	// Authenticate resolves the request's identity, returning a resterror
	// (typically 401 with a challenge) on failure.
	Authenticate(r *http.Request) (Identity, error)
	// Identifier returns a stable per-caller key used for throttling.
	Identifier(r *http.Request) string
}

// Anonymous accepts every request without credentials.
type Anonymous struct{}

func (Anonymous) Authenticate(*http.Request) (Identity, error) {
	return Identity{Username: "anonymous", Anonymous: true}, nil
}

// Identifier keys anonymous throttling by remote address.
func (Anonymous) Identifier(r *http.Request) string {
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "noaddr"
}

// CredentialChecker validates a username/password pair.
type CredentialChecker func(username, password string) bool

// Basic authenticates with HTTP Basic credentials checked against the
// configured checker.
type Basic struct {
	// Realm is quoted into the WWW-Authenticate challenge.
	Realm string
	Check CredentialChecker
}

func (b *Basic) challenge() string {
	realm := b.Realm
	if realm == "" {
		realm = "restkit"
	}
	return `Basic realm="` + realm + `"`
}

func (b *Basic) Authenticate(r *http.Request) (Identity, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return Identity{}, resterror.Unauthorized(b.challenge())
	}
	if b.Check == nil || !b.Check(username, password) {
		return Identity{}, resterror.Unauthorized(b.challenge())
	}
	return Identity{Username: username}, nil
}

func (b *Basic) Identifier(r *http.Request) string {
	if username, _, ok := r.BasicAuth(); ok {
		return username
	}
	return Anonymous{}.Identifier(r)
}
