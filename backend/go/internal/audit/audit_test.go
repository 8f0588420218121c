package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewAudit(t *testing.T) {
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.FixedZone("IST", 19800))
	doc := NewAudit(at, map[string]string{"gender": "Male"}, 1, 0.2, 0.8)

	_, err := uuid.Parse(doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, doc.SubmittedAt.Location())
	assert.Equal(t, 1, doc.Prediction)
	assert.Equal(t, 0.8, doc.Depression)

	other := NewAudit(at, nil, 0, 1, 0)
	assert.NotEqual(t, doc.ID, other.ID)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Record(context.Background(), nil, 0, 1, 0))
}
