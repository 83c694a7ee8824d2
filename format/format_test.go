package format

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchError(t *testing.T) {
	var b BatchError
	assert.Nil(t, b.ErrOrNil())

	b.Add(nil)
	assert.Nil(t, b.ErrOrNil())

	b.Add(fmt.Errorf("%w: tile 3", ErrIndex))
	err := b.ErrOrNil()
	assert.EqualError(t, err, "index out of range: tile 3")
	assert.True(t, errors.Is(err, ErrIndex))
	assert.False(t, errors.Is(err, ErrFormat))

	b.Add(fmt.Errorf("%w: short buffer", ErrFormat))
	assert.EqualError(t, b.ErrOrNil(), "2 errors: index out of range: tile 3; format error: short buffer")
	assert.True(t, errors.Is(b.ErrOrNil(), ErrFormat))
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "lenient", Lenient.String())
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "Policy(7)", Policy(7).String())
}
