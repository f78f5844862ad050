package access

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
)

func user() *Principal {
	return &Principal{UserID: uuid.New(), Username: "user", Roles: []enums.RoleName{enums.RoleUser}}
}

func admin() *Principal {
	return &Principal{UserID: uuid.New(), Username: "admin", Roles: []enums.RoleName{enums.RoleAdmin}}
}

func TestDefaultPolicyDecisions(t *testing.T) {
	policy := DefaultPolicy()

	cases := []struct {
		name      string
		principal *Principal
		method    string
		path      string
		want      Decision
	}{
		{"login page is public", nil, http.MethodGet, "/login", Allow},
		{"login post is public", nil, http.MethodPost, "/login", Allow},
		{"register is public", nil, http.MethodPost, "/register", Allow},
		{"static assets are public", nil, http.MethodGet, "/static/css/app.css", Allow},
		{"error pages are public", nil, http.MethodGet, "/403", Allow},
		{"health is public", nil, http.MethodGet, "/health/ready", Allow},
		{"metrics is public", nil, http.MethodGet, "/metrics", Allow},

		{"index needs login", nil, http.MethodGet, "/", Unauthenticated},
		{"index allowed for user", user(), http.MethodGet, "/", Allow},
		{"unknown page defaults to authenticated", nil, http.MethodGet, "/somewhere/else", Unauthenticated},
		{"product api for user", user(), http.MethodPost, "/api/products", Allow},
		{"product delete for user", user(), http.MethodDelete, "/api/products/" + uuid.NewString(), Allow},

		{"users page anonymous", nil, http.MethodGet, "/users", Unauthenticated},
		{"users page for user", user(), http.MethodGet, "/users", Forbidden},
		{"users page for admin", admin(), http.MethodGet, "/users", Allow},
		{"user delete page for user", user(), http.MethodPost, "/users/delete/" + uuid.NewString(), Forbidden},
		{"assign role for user", user(), http.MethodPost, "/assignRole/" + uuid.NewString(), Forbidden},
		{"assign role for admin", admin(), http.MethodPost, "/assignRole/" + uuid.NewString(), Allow},

		{"api user list for user", user(), http.MethodGet, "/api/users", Forbidden},
		{"api user list anonymous", nil, http.MethodGet, "/api/users", Unauthenticated},
		{"api user search for admin", admin(), http.MethodGet, "/api/users/search", Allow},
		{"api user delete for user", user(), http.MethodDelete, "/api/users/" + uuid.NewString(), Forbidden},
		{"api make admin for user", user(), http.MethodPut, "/api/users/" + uuid.NewString() + "/makeAdmin", Forbidden},
		{"api make admin for admin", admin(), http.MethodPut, "/api/users/" + uuid.NewString() + "/makeAdmin", Allow},
		{"current user beats the id rule", user(), http.MethodGet, "/api/users/current", Allow},
		{"current user anonymous", nil, http.MethodGet, "/api/users/current", Unauthenticated},
		{"histogram data is admin only", user(), http.MethodGet, "/api/products/histogram", Forbidden},
		{"histogram data for admin", admin(), http.MethodGet, "/api/products/histogram", Allow},

		{"trailing slash normalised", user(), http.MethodGet, "/users/", Forbidden},
		{"dot segments normalised", user(), http.MethodGet, "/static/../users", Forbidden},
		{"head follows get", user(), http.MethodHead, "/api/users", Forbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.Decide(tc.principal, tc.method, tc.path); got != tc.want {
				t.Fatalf("Decide(%s %s) = %s, want %s", tc.method, tc.path, got, tc.want)
			}
		})
	}
}

func TestMostSpecificRuleWins(t *testing.T) {
	policy, err := NewPolicy([]Rule{
		{Pattern: "/docs/*", Level: Public},
		{Pattern: "/docs/{page}", Level: Authenticated},
		{Pattern: "/docs/secret", Level: Admin},
		{Pattern: "/docs/edit", Methods: []string{"post"}, Level: Admin},
		{Pattern: "/docs/edit", Level: Authenticated},
		{Pattern: "/files/*", Level: Admin},
		{Pattern: "/files/{dir}/{name}", Level: Authenticated},
	}, Public)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	cases := []struct {
		method string
		path   string
		want   Level
	}{
		{http.MethodGet, "/docs/secret", Admin},
		{http.MethodGet, "/docs/intro", Authenticated},
		{http.MethodGet, "/docs/a/b", Public},
		{http.MethodPost, "/docs/edit", Admin},
		{http.MethodGet, "/docs/edit", Authenticated},
		{http.MethodGet, "/other", Public},
		{http.MethodGet, "/files/a/b", Authenticated},
		{http.MethodGet, "/files/a/b/c", Admin},
	}
	for _, tc := range cases {
		if got := policy.LevelFor(tc.method, tc.path); got != tc.want {
			t.Fatalf("LevelFor(%s %s) = %s, want %s", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestNewPolicyRejectsBadPatterns(t *testing.T) {
	if _, err := NewPolicy([]Rule{{Pattern: "users"}}, Public); err == nil {
		t.Fatal("expected error for relative pattern")
	}
	if _, err := NewPolicy([]Rule{{Pattern: "/a/*/b"}}, Public); err == nil {
		t.Fatal("expected error for wildcard in the middle")
	}
}

func TestIsAPIPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/api":            true,
		"/api/products":   true,
		"/apiary":         false,
		"/":               false,
		"/users/delete/1": false,
	} {
		if got := IsAPIPath(path); got != want {
			t.Fatalf("IsAPIPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	if _, err := Require(ctx, enums.RoleAdmin); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := Require(WithPrincipal(ctx, user()), enums.RoleAdmin); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	p, err := Require(WithPrincipal(ctx, admin()), enums.RoleAdmin)
	if err != nil || !p.IsAdmin() {
		t.Fatalf("expected admin principal, got %v (%v)", p, err)
	}
	if _, ok := PrincipalFrom(WithPrincipal(ctx, nil)); ok {
		t.Fatal("nil principal must not count as authenticated")
	}
}
