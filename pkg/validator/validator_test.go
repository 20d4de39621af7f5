package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatInput struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type seekInput struct {
	CurrentTime *float64 `json:"current_time" validate:"required,gte=0"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(chatInput{})
	require.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "content", errs[0].Field)
	assert.Equal(t, "REQUIRED", errs[0].Code)
	assert.Equal(t, "content is required", errs[0].Message)
}

func TestValidateMaxCountsCharacters(t *testing.T) {
	v := NewValidator()

	_, ok := v.Validate(chatInput{Content: strings.Repeat("é", 1000)})
	assert.True(t, ok)

	errs, ok := v.Validate(chatInput{Content: strings.Repeat("a", 1001)})
	require.False(t, ok)
	assert.Equal(t, "MAX", errs[0].Code)
}

func TestValidatePointerZeroValue(t *testing.T) {
	v := NewValidator()

	zero := 0.0
	_, ok := v.Validate(seekInput{CurrentTime: &zero})
	assert.True(t, ok)

	_, ok = v.Validate(seekInput{})
	assert.False(t, ok)

	negative := -1.0
	errs, ok := v.Validate(seekInput{CurrentTime: &negative})
	require.False(t, ok)
	assert.Equal(t, "GTE", errs[0].Code)
}
