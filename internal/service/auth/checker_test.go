package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/domain"
	models "rescribe/internal/domain/models/structure"
	"rescribe/internal/repository/memory"
)

func TestCheckRepositoryAccess(t *testing.T) {
	checker := NewChecker()

	tests := []struct {
		name   string
		public models.AccessLevel
		access []models.Access
		level  models.AccessLevel
		want   bool
	}{
		{"public view grants view", models.AccessView, nil, models.AccessView, true},
		{"public view does not grant edit", models.AccessView, nil, models.AccessEdit, false},
		{"no entry", models.AccessNone, nil, models.AccessView, false},
		{"edit entry grants edit", models.AccessNone, []models.Access{{ID: "r1", Level: models.AccessEdit}}, models.AccessEdit, true},
		{"edit entry does not grant admin", models.AccessNone, []models.Access{{ID: "r1", Level: models.AccessEdit}}, models.AccessAdmin, false},
		{"owner grants admin", models.AccessNone, []models.Access{{ID: "r1", Level: models.AccessOwner}}, models.AccessAdmin, true},
		{"explicit none denies", models.AccessNone, []models.Access{{ID: "r1", Level: models.AccessNone}}, models.AccessNone, false},
		{"entry for another repository", models.AccessNone, []models.Access{{ID: "r2", Level: models.AccessOwner}}, models.AccessView, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &models.Repository{ID: "r1", Public: tt.public}
			user := &models.User{ID: "u1", Repositories: tt.access}
			assert.Equal(t, tt.want, checker.CheckRepositoryAccess(user, repo, tt.level))
		})
	}
}

func TestCheckAccess(t *testing.T) {
	checker := NewChecker()
	list := []models.Access{{ID: "u1", Level: models.AccessAdmin}}

	assert.True(t, checker.CheckAccess("u1", list, models.AccessEdit))
	assert.True(t, checker.CheckAccess("u1", list, models.AccessAdmin))
	assert.False(t, checker.CheckAccess("u1", list, models.AccessOwner))
	assert.False(t, checker.CheckAccess("u2", list, models.AccessView))
}

func TestAuthorizerRequireRepository(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(models.User{ID: "u1", Repositories: []models.Access{{ID: "r1", Level: models.AccessEdit}}})
	a := NewAuthorizer(store.Users(), NewChecker())
	repo := &models.Repository{ID: "r1", Public: models.AccessNone}

	user, err := a.RequireRepository(context.Background(), "u1", repo, models.AccessEdit)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = a.RequireRepository(context.Background(), "u1", repo, models.AccessAdmin)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = a.RequireRepository(context.Background(), "missing", repo, models.AccessView)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
