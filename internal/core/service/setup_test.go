package service

import (
	"context"
	"fmt"
	"testing"

	"vool2mqtt/pkg/voolapi"

	"github.com/stretchr/testify/assert"
)

func TestValidateSetupOK(t *testing.T) {
	lmc := voolapi.CreateTestClient("lmc-1")
	wallbox := voolapi.CreateTestClient("wb-1")

	err := ValidateSetup(context.Background(), lmc, wallbox)

	assert.NoError(t, err)
	assert.Equal(t, 1, lmc.StatusCalls())
	assert.Equal(t, 1, wallbox.StatusCalls())
}

func TestValidateSetupInvalidAuth(t *testing.T) {
	lmc := voolapi.CreateTestClient("lmc-1")
	wallbox := voolapi.CreateTestClient("wb-1")
	wallbox.StatusErr = fmt.Errorf("login rejected: %w", voolapi.ErrInvalidAuth)

	err := ValidateSetup(context.Background(), lmc, wallbox)

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorContains(t, err, "wb-1")
}

func TestValidateSetupCannotConnect(t *testing.T) {
	lmc := voolapi.CreateTestClient("lmc-1")
	lmc.StatusErr = &voolapi.StatusError{Code: 500}
	wallbox := voolapi.CreateTestClient("wb-1")

	err := ValidateSetup(context.Background(), lmc, wallbox)

	assert.ErrorIs(t, err, ErrCannotConnect)
	// first failure aborts the check
	assert.Equal(t, 0, wallbox.StatusCalls())
}

func TestValidateSetupUnknownError(t *testing.T) {
	lmc := voolapi.CreateTestClient("lmc-1")
	lmc.StatusErr = fmt.Errorf("malformed payload")

	err := ValidateSetup(context.Background(), lmc)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrCannotConnect)
}
