package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "wayfinder/pkg/errors"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Width int    `json:"width" validate:"gt=0"`
	Start string `json:"start_id" validate:"required"`
	End   string `json:"end_id" validate:"required,nefield=Start"`
}

func TestValidateStructPasses(t *testing.T) {
	assert.NoError(t, ValidateStruct(sample{Name: "a", Width: 1, Start: "x", End: "y"}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(sample{Name: "toolong", Width: 0, Start: "x", End: "x"})
	require.Error(t, err)

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Details, "name")
	assert.Contains(t, appErr.Details, "width")
	assert.Contains(t, appErr.Details, "end_id")
	assert.Contains(t, appErr.Message, "name must be at most 5 characters")
	assert.Contains(t, appErr.Message, "width must be greater than 0")
	assert.Contains(t, appErr.Message, "end_id must differ from start")
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(sample{Width: 1, End: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "start_id is required")
}
