package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	"github.com/angelmondragon/pharmacy-inventory/internal/accounts"
	"github.com/angelmondragon/pharmacy-inventory/internal/users"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
)

type stubAccounts struct {
	users      map[uuid.UUID]*users.UserDTO
	query      string
	deleted    []uuid.UUID
	elevateErr error
	registered accounts.RegisterInput
}

func newStubAccounts(list ...*users.UserDTO) *stubAccounts {
	s := &stubAccounts{users: map[uuid.UUID]*users.UserDTO{}}
	for _, u := range list {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubAccounts) Register(_ context.Context, input accounts.RegisterInput) (*users.UserDTO, error) {
	s.registered = input
	return &users.UserDTO{ID: uuid.New(), Username: input.Username, Email: input.Email}, nil
}

func (s *stubAccounts) AuthenticateLookup(context.Context, string) (*models.User, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (s *stubAccounts) ElevateToAdmin(_ context.Context, id uuid.UUID) (*users.UserDTO, error) {
	if s.elevateErr != nil {
		return nil, s.elevateErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	u.Roles = []users.RoleDTO{{ID: uuid.New(), Name: enums.RoleAdmin}}
	return u, nil
}

func (s *stubAccounts) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.users, id)
	return nil
}

func (s *stubAccounts) List(context.Context) ([]users.UserDTO, error) {
	out := make([]users.UserDTO, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubAccounts) Get(_ context.Context, id uuid.UUID) (*users.UserDTO, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return u, nil
}

func (s *stubAccounts) RehashPassword(context.Context, uuid.UUID, string) error {
	return nil
}

func (s *stubAccounts) Search(ctx context.Context, query string) ([]users.UserDTO, error) {
	s.query = query
	return s.List(ctx)
}

func TestUsersListRequiresAdmin(t *testing.T) {
	svc := newStubAccounts(&users.UserDTO{ID: uuid.New(), Username: "alice"})

	rec := httptest.NewRecorder()
	UsersList(svc, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodGet, "/api/users", "", nil), enums.RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	UsersList(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/users", "", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous caller, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	UsersList(svc, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodGet, "/api/users", "", nil), enums.RoleAdmin))
	var list []users.UserDTO
	decodeEnvelope(t, rec, &list)
	if rec.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("expected one user, got %d %+v", rec.Code, list)
	}
}

func TestUsersSearchTrimsQuery(t *testing.T) {
	svc := newStubAccounts()
	rec := httptest.NewRecorder()
	UsersSearch(svc, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodGet, "/api/users/search?q=+ali+", "", nil), enums.RoleAdmin))
	if rec.Code != http.StatusOK || svc.query != "ali" {
		t.Fatalf("unexpected %d %q", rec.Code, svc.query)
	}
}

func TestUsersDeleteIsIdempotent(t *testing.T) {
	id := uuid.New()
	svc := newStubAccounts(&users.UserDTO{ID: id})
	params := map[string]string{"id": id.String()}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		UsersDelete(svc, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodDelete, "/api/users/"+id.String(), "", params), enums.RoleAdmin))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("attempt %d: expected 204 got %d", i, rec.Code)
		}
	}
	if len(svc.deleted) != 2 {
		t.Fatalf("expected two delete calls, got %d", len(svc.deleted))
	}
}

func TestUsersMakeAdmin(t *testing.T) {
	id := uuid.New()
	svc := newStubAccounts(&users.UserDTO{ID: id, Roles: []users.RoleDTO{{Name: enums.RoleUser}}})
	params := map[string]string{"id": id.String()}

	rec := httptest.NewRecorder()
	UsersMakeAdmin(svc, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodPut, "/api/users/"+id.String()+"/makeAdmin", "", params), enums.RoleAdmin))
	var user users.UserDTO
	decodeEnvelope(t, rec, &user)
	if rec.Code != http.StatusOK || len(user.Roles) != 1 || user.Roles[0].Name != enums.RoleAdmin {
		t.Fatalf("unexpected %d %+v", rec.Code, user)
	}

	missing := uuid.NewString()
	rec = httptest.NewRecorder()
	UsersMakeAdmin(svc, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodPut, "/", "", map[string]string{"id": missing}), enums.RoleAdmin))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	svc.elevateErr = pkgerrors.New(pkgerrors.CodeRoleNotConfigured, "admin role is not configured")
	rec = httptest.NewRecorder()
	UsersMakeAdmin(svc, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodPut, "/", "", params), enums.RoleAdmin))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != string(pkgerrors.CodeRoleNotConfigured) {
		t.Fatalf("expected 400 ROLE_NOT_CONFIGURED got %d", rec.Code)
	}
}

func TestUsersCurrent(t *testing.T) {
	id := uuid.New()
	svc := newStubAccounts(&users.UserDTO{ID: id, Username: "alice"})

	req := newRequest(http.MethodGet, "/api/users/current", "", nil)
	req = req.WithContext(access.WithPrincipal(req.Context(), &access.Principal{UserID: id, Username: "alice"}))
	rec := httptest.NewRecorder()
	UsersCurrent(svc, testLogger()).ServeHTTP(rec, req)

	var user users.UserDTO
	decodeEnvelope(t, rec, &user)
	if rec.Code != http.StatusOK || user.Username != "alice" {
		t.Fatalf("unexpected %d %+v", rec.Code, user)
	}

	rec = httptest.NewRecorder()
	UsersCurrent(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/users/current", "", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
