package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validVoolConfig() VoolConfig {
	return VoolConfig{
		Email:               "user@example.org",
		Password:            "secret",
		LMCDeviceId:         "lmc-1",
		WallboxDeviceId:     "wb-1",
		PollIntervalSeconds: 300,
	}
}

func TestVoolConfigValidate(t *testing.T) {

	assert := assert.New(t)

	assert.NoError(validVoolConfig().Validate())

	cfg := validVoolConfig()
	cfg.Email = ""
	assert.Error(cfg.Validate())

	cfg = validVoolConfig()
	cfg.Password = ""
	assert.Error(cfg.Validate())

	cfg = validVoolConfig()
	cfg.LMCDeviceId = ""
	assert.Error(cfg.Validate())

	cfg = validVoolConfig()
	cfg.WallboxDeviceId = ""
	assert.Error(cfg.Validate())

	cfg = validVoolConfig()
	cfg.PollIntervalSeconds = 4
	assert.Error(cfg.Validate())
}

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckMQTTTopic("Vool2MQTT")
	assert.NoError(err)
	assert.Equal("vool2mqtt", topic)

	_, err = CheckMQTTTopic("vool/2mqtt")
	assert.Error(err)

	_, err = CheckMQTTTopic("")
	assert.Error(err)
}
