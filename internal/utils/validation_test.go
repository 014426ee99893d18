package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationSubject struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"min=0"`
	Mode  string `json:"mode" validate:"omitempty,oneof=merge replace"`
}

func TestValidateStruct_Valid(t *testing.T) {
	err := ValidateStruct(&validationSubject{Name: "x", Mode: "merge"})
	assert.NoError(t, err)
}

func TestValidateStruct_RequiredField(t *testing.T) {
	err := ValidateStruct(&validationSubject{})
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	// Field names come from json tags, not Go names.
	te := AsTransferError(err)
	assert.Equal(t, "name", te.Field)
}

func TestValidateStruct_OneOf(t *testing.T) {
	err := ValidateStruct(&validationSubject{Name: "x", Mode: "sideways"})
	require.Error(t, err)

	te := AsTransferError(err)
	assert.Equal(t, "mode", te.Field)
}

func TestValidateStruct_Min(t *testing.T) {
	err := ValidateStruct(&validationSubject{Name: "x", Count: -1})
	require.Error(t, err)

	te := AsTransferError(err)
	assert.Equal(t, "count", te.Field)
}
