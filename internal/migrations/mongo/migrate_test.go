package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"rsvp/internal/reservations/repository"
)

func TestCollections(t *testing.T) {
	defs := Collections()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
		assert.NotNil(t, def.Validator, def.Name)
	}

	assert.ElementsMatch(t, []string{
		repository.CollectionName,
		repository.LocksCollectionName,
		repository.CountersCollectionName,
	}, names)
}

func TestReservationsIndexes_CoverQueries(t *testing.T) {
	var names []string
	for _, idx := range ReservationsIndexes {
		require.NotNil(t, idx.Options)
		require.NotNil(t, idx.Options.Name)
		names = append(names, *idx.Options.Name)
	}
	assert.Equal(t, []string{"reservations_resource_span", "reservations_user_id", "reservations_status_id"}, names)

	span, ok := ReservationsIndexes[0].Keys.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "resource_id", span[0].Key)
}

func TestValidators_MarshalToBSON(t *testing.T) {
	for _, def := range Collections() {
		_, err := bson.Marshal(def.Validator)
		assert.NoError(t, err, def.Name)
	}
}
