package logging

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "x"},
	}
}

func TestIsRateLimit(t *testing.T) {
	assert.False(t, IsRateLimit(nil))
	assert.True(t, IsRateLimit(fmt.Errorf("edit: %w", restError(http.StatusTooManyRequests, 0))))
	assert.True(t, IsRateLimit(errors.New("hit rate_limit")))
	assert.False(t, IsRateLimit(restError(http.StatusForbidden, 50013)))
}

func TestIsUnknownResource(t *testing.T) {
	assert.True(t, IsUnknownResource(restError(http.StatusNotFound, codeUnknownMessage)))
	assert.True(t, IsUnknownResource(fmt.Errorf("fetch: %w", restError(http.StatusNotFound, codeUnknownChannel))))
	assert.False(t, IsUnknownResource(errors.New("404")))
	assert.False(t, IsUnknownResource(restError(http.StatusForbidden, 50001)))
}

func TestIsForbidden(t *testing.T) {
	assert.True(t, IsForbidden(restError(http.StatusForbidden, 50013)))
	assert.False(t, IsForbidden(restError(http.StatusNotFound, 10008)))
}
