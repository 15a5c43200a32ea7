package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

type sample struct {
	Title string   `json:"title" validate:"required,min=5,max=10"`
	Tags  []string `json:"tags" validate:"max=2"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Title: "hello"}))

	err := Struct(sample{Title: "hey", Tags: []string{"a", "b", "c"}})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, "must be at least 5 characters", domainErr.Details["title"])
	assert.Equal(t, "must contain at most 2 items", domainErr.Details["tags"])
}
