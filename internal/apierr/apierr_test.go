package apierr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesKindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(NotFound, cause)

	require.Error(t, err)
	assert.Equal(t, NotFound, KindOf(err))
	assert.True(t, errors.Is(err, cause) || errors.Unwrap(err) == cause)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(Internal, nil))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		Invalid:            http.StatusBadRequest,
		NotFound:           http.StatusNotFound,
		Conflict:           http.StatusConflict,
		EngineNotAvailable: http.StatusBadRequest,
		NotSupported:       http.StatusBadRequest,
		DepthLimitExceeded: http.StatusBadRequest,
		StoreUnavailable:   http.StatusServiceUnavailable,
		Internal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), "kind=%s", kind)
	}
}

func TestCacheableExcludesTransientKinds(t *testing.T) {
	assert.False(t, Cacheable(Invalid))
	assert.False(t, Cacheable(NotFound))
	assert.False(t, Cacheable(StoreUnavailable))
	assert.True(t, Cacheable(Conflict))
	assert.True(t, Cacheable(NotSupported))
	assert.True(t, Cacheable(DepthLimitExceeded))
}

func TestNewfFormats(t *testing.T) {
	err := Newf(Invalid, "bad field %q", "name")
	assert.Equal(t, "invalid: bad field \"name\"", err.Error())
}
