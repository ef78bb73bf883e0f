package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jobrie31/trailers-contremaitres/models"
)

func TestCanAccessTrailer(t *testing.T) {
	admin := &models.UserProfile{UID: "a", IsAdmin: true}
	assert.True(t, CanAccessTrailer(admin, "anything"))

	own := "uid-1"
	foreman := &models.UserProfile{UID: "uid-1", TrailerID: &own}
	assert.True(t, CanAccessTrailer(foreman, "uid-1"))
	assert.False(t, CanAccessTrailer(foreman, "uid-2"))

	unbound := &models.UserProfile{UID: "uid-3"}
	assert.False(t, CanAccessTrailer(unbound, "uid-3"))
}
