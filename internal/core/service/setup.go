package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"vool2mqtt/pkg/voolapi"
)

var (
	// ErrInvalidCredentials means the cloud API rejected the account or one
	// of the device tokens. Retrying without fixing the config is pointless.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCannotConnect covers transport failures and server side errors.
	ErrCannotConnect = errors.New("cannot connect")
)

// ValidateSetup verifies that the configured account can authenticate and
// that every device delivers a status payload. Devices are checked in
// order; the first failure aborts the check.
func ValidateSetup(ctx context.Context, clients ...voolapi.Client) error {
	for _, client := range clients {
		if _, err := client.GetDeviceStatus(ctx); err != nil {
			return classify(client.DeviceID(), err)
		}
	}
	return nil
}

func classify(deviceID string, err error) error {
	var statusErr *voolapi.StatusError
	var netErr net.Error
	switch {
	case voolapi.IsInvalidAuth(err):
		return fmt.Errorf("%w: device %s: %s", ErrInvalidCredentials, deviceID, err)
	case errors.As(err, &statusErr), errors.As(err, &netErr):
		return fmt.Errorf("%w: device %s: %s", ErrCannotConnect, deviceID, err)
	default:
		return fmt.Errorf("device %s: %w", deviceID, err)
	}
}
