package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/umit144/subscriber-provisioner/internal/models"
)

func TestMongoErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no documents", err: mongo.ErrNoDocuments, want: models.ErrNotFound},
		{
			name: "duplicate key",
			err:  mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}},
			want: models.ErrDuplicateKey,
		},
		{
			name: "network",
			err:  mongo.CommandError{Code: 6, Message: "host unreachable", Labels: []string{"NetworkError"}},
			want: models.ErrConnectivity,
		},
		{name: "deadline", err: context.DeadlineExceeded, want: models.ErrConnectivity},
		{name: "disconnected", err: mongo.ErrClientDisconnected, want: models.ErrConnectivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mongoError("op", tt.err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMongoErrorPassesThroughOthers(t *testing.T) {
	cause := errors.New("unauthorized")
	err := mongoError("insert failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, models.ErrConnectivity)
	assert.NotErrorIs(t, err, models.ErrDuplicateKey)
	assert.EqualError(t, err, "insert failed: unauthorized")
	assert.NoError(t, mongoError("noop", nil))
}
