package util

import (
	"vool2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Vool: config.VoolConfig{
			BaseURL:             "http://localhost:0",
			Email:               "test@example.org",
			Password:            "secret",
			LMCDeviceId:         "lmc-1",
			WallboxDeviceId:     "wb-1",
			PollIntervalSeconds: 300,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "vool2mqtt",
		},
		Port: 8080,
	}
}
