package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kondapalli/db"
	"kondapalli/globals"
	"kondapalli/models"
	"kondapalli/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

type memUsers struct {
	users    []*models.User
	lastFind models.UserFilter
}

func (m *memUsers) Find(_ context.Context, f models.UserFilter, skip, limit int64) ([]models.User, int64, error) {
	m.lastFind = f
	var out []models.User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Verified != nil && u.IsEmailVerified != *f.Verified {
			continue
		}
		if f.Search != "" && !utils.ContainsIgnoreCase(u.Name, f.Search) && !utils.ContainsIgnoreCase(u.Email, f.Search) {
			continue
		}
		out = append(out, *u)
	}
	total := int64(len(out))
	end := skip + limit
	if end > total {
		end = total
	}
	if skip > total {
		skip = total
	}
	return out[skip:end], total, nil
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	if upd.Email != nil {
		for _, u := range m.users {
			if u.ID != id && u.Email == *upd.Email {
				return nil, db.ErrDuplicate
			}
		}
	}
	for _, u := range m.users {
		if u.ID != id {
			continue
		}
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if upd.IsEmailVerified != nil {
			u.IsEmailVerified = *upd.IsEmailVerified
		}
		cp := *u
		return &cp, nil
	}
	return nil, db.ErrNotFound
}

func (m *memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func seed() *memUsers {
	return &memUsers{users: []*models.User{
		{ID: primitive.NewObjectID(), Name: "Admin", Email: "admin@shop.in", Role: models.RoleAdmin, IsEmailVerified: true},
		{ID: primitive.NewObjectID(), Name: "Ravi", Email: "ravi@example.com", Role: models.RoleCustomer},
		{ID: primitive.NewObjectID(), Name: "Sita", Email: "sita@example.com", Role: models.RoleCustomer, IsEmailVerified: true},
	}}
}

func TestFilter(t *testing.T) {
	f, err := Filter(" ravi ", "customer", "unverified")
	require.NoError(t, err)
	assert.Equal(t, "ravi", f.Search)
	assert.Equal(t, models.RoleCustomer, f.Role)
	require.NotNil(t, f.Verified)
	assert.False(t, *f.Verified)

	_, err = Filter("", "superuser", "")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	_, err = Filter("", "", "pending")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestListUsers(t *testing.T) {
	users := NewUsers(seed(), zaptest.NewLogger(t))

	verified := true
	list, p, err := users.List(context.Background(), models.UserFilter{Verified: &verified}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(2), p.Total)

	list, _, err = users.List(context.Background(), models.UserFilter{Search: "SITA"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sita", list[0].Name)
}

func TestUpdateUser(t *testing.T) {
	store := seed()
	users := NewUsers(store, zaptest.NewLogger(t))
	ravi := store.users[1].ID.Hex()

	admin := models.RoleAdmin
	email := " Ravi.K@Example.com "
	u, err := users.Update(context.Background(), ravi, UpdateRequest{Role: &admin, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "ravi.k@example.com", u.Email)

	taken := "sita@example.com"
	_, err = users.Update(context.Background(), ravi, UpdateRequest{Email: &taken})
	assert.Equal(t, "User already exists with this email", err.Error())

	bogus := models.Role("owner")
	_, err = users.Update(context.Background(), ravi, UpdateRequest{Role: &bogus})
	assert.Equal(t, "Invalid role", err.Error())

	_, err = users.Update(context.Background(), primitive.NewObjectID().Hex(), UpdateRequest{})
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}

func TestDeleteUser(t *testing.T) {
	store := seed()
	users := NewUsers(store, zaptest.NewLogger(t))
	adminID := store.users[0].ID.Hex()

	err := users.Delete(context.Background(), adminID, adminID)
	assert.Equal(t, "Cannot delete your own account", err.Error())
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	require.NoError(t, users.Delete(context.Background(), adminID, store.users[1].ID.Hex()))
	assert.Len(t, store.users, 2)
}

func TestUserHandlers(t *testing.T) {
	store := seed()
	h := NewHandler(NewUsers(store, zaptest.NewLogger(t)), zaptest.NewLogger(t), false)
	adminID := store.users[0].ID.Hex()

	rec := httptest.NewRecorder()
	h.ListUsers(rec, httptest.NewRequest(http.MethodGet, "/api/auth/users?role=customer&limit=1", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalUsers":2`)
	assert.Contains(t, rec.Body.String(), `"hasNextPage":true`)

	req := httptest.NewRequest(http.MethodDelete, "/api/auth/users/"+adminID, nil)
	req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, adminID))
	rec = httptest.NewRecorder()
	h.DeleteUser(rec, req, httprouter.Params{{Key: "id", Value: adminID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.UpdateUser(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"isEmailVerified":true}`)),
		httprouter.Params{{Key: "id", Value: store.users[1].ID.Hex()}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.users[1].IsEmailVerified)
}
