//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberdesk/internal/identifier/models"
	"memberdesk/internal/identifier/store"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
	"memberdesk/pkg/testutil/containers"
)

func newIdentifier(t *testing.T, entityID id.EntityID) *models.Identifier {
	t.Helper()
	identifier, err := models.NewIdentifier(
		id.IdentifierID(uuid.New()), entityID,
		models.TypeKVK, "12345678", "NL", time.Now().UTC(),
	)
	require.NoError(t, err)
	return identifier
}

func TestPostgresStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	s := store.NewPostgres(pg.DB)
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))
		entityID := id.EntityID(uuid.New())
		identifier := newIdentifier(t, entityID)
		require.NoError(t, s.Create(ctx, identifier))

		found, err := s.FindByID(ctx, identifier.ID)
		require.NoError(t, err)
		assert.Equal(t, identifier.ID, found.ID)
		assert.Equal(t, identifier.Value, found.Value)
		assert.Equal(t, models.StatusUnvalidated, found.ValidationStatus)
		assert.Nil(t, found.LastValidatedAt)

		list, err := s.ListByEntity(ctx, entityID)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("find missing", func(t *testing.T) {
		_, err := s.FindByID(ctx, id.IdentifierID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("begin lookup is exclusive", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))
		identifier := newIdentifier(t, id.EntityID(uuid.New()))
		require.NoError(t, s.Create(ctx, identifier))

		prior, err := s.BeginLookup(ctx, identifier.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnvalidated, prior.ValidationStatus)

		_, err = s.BeginLookup(ctx, identifier.ID, time.Now().UTC())
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("finish lookup applies while pending", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))
		identifier := newIdentifier(t, id.EntityID(uuid.New()))
		require.NoError(t, s.Create(ctx, identifier))

		_, err := s.BeginLookup(ctx, identifier.ID, time.Now().UTC())
		require.NoError(t, err)

		now := time.Now().UTC()
		updated, err := s.FinishLookup(ctx, identifier.ID, func(i *models.Identifier) {
			i.ApplyValidated(now)
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusValidated, updated.ValidationStatus)
		require.NotNil(t, updated.LastValidatedAt)

		found, err := s.FindByID(ctx, identifier.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusValidated, found.ValidationStatus)
		require.NotNil(t, found.LastValidatedAt)
	})

	t.Run("finish lookup discards after edit", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))
		identifier := newIdentifier(t, id.EntityID(uuid.New()))
		require.NoError(t, s.Create(ctx, identifier))

		_, err := s.BeginLookup(ctx, identifier.ID, time.Now().UTC())
		require.NoError(t, err)

		// Concurrent edit moves the row out of PENDING before the lookup
		// result lands.
		_, err = s.Execute(ctx, identifier.ID, nil, func(i *models.Identifier) {
			i.ApplyEdit(models.TypeKVK, "87654321", "NL", time.Now().UTC())
		})
		require.NoError(t, err)

		current, err := s.FinishLookup(ctx, identifier.ID, func(i *models.Identifier) {
			i.ApplyValidated(time.Now().UTC())
		})
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		require.NotNil(t, current)
		assert.Equal(t, models.StatusUnvalidated, current.ValidationStatus)
		assert.Equal(t, "87654321", current.Value)
	})

	t.Run("execute validate rejects without mutating", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))
		identifier := newIdentifier(t, id.EntityID(uuid.New()))
		require.NoError(t, s.Create(ctx, identifier))

		_, err := s.Execute(ctx, identifier.ID,
			func(*models.Identifier) error { return sentinel.ErrInvalidState },
			func(i *models.Identifier) { i.Value = "clobbered" })
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)

		found, err := s.FindByID(ctx, identifier.ID)
		require.NoError(t, err)
		assert.Equal(t, "12345678", found.Value)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))
		identifier := newIdentifier(t, id.EntityID(uuid.New()))
		require.NoError(t, s.Create(ctx, identifier))

		require.NoError(t, s.Delete(ctx, identifier.ID))
		assert.ErrorIs(t, s.Delete(ctx, identifier.ID), sentinel.ErrNotFound)
	})
}
