package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("qty", "bad")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", NotFound("gone"))))
	assert.Equal(t, KindStore, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestStatusCode(t *testing.T) {
	cases := map[*Error]int{
		Validation("f", "m"): http.StatusBadRequest,
		EmptyCart("m"):       http.StatusBadRequest,
		NotFound("m"):        http.StatusNotFound,
		Conflict("m"):        http.StatusConflict,
		Store("m", nil):      http.StatusInternalServerError,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.StatusCode(), string(e.Kind))
	}
}

func TestStoreErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Store("Error adding to cart", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Error adding to cart: connection reset", err.Error())
}

func TestFrom(t *testing.T) {
	nf := NotFound("Cart item not found")
	assert.Same(t, nf, From(fmt.Errorf("ctx: %w", nf)))

	wrapped := From(errors.New("boom"))
	assert.Equal(t, KindStore, wrapped.Kind)
	assert.True(t, Is(wrapped, KindStore))
}
