package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Vool     VoolConfig `mapstructure:"vool"`
	MQTT     MQTTConfig `mapstructure:"mqtt"`

	Port    uint `mapstructure:"port"`
	HttpLog bool `mapstructure:"http_log"`
}

type VoolConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	Email               string
	Password            string
	LMCDeviceId         string `mapstructure:"lmc_device_id"`
	WallboxDeviceId     string `mapstructure:"wallbox_device_id"`
	PollIntervalSeconds uint32 `mapstructure:"poll_interval_seconds"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (c VoolConfig) Validate() error {
	if c.Email == "" {
		return errors.New("config param vool.email is required")
	}
	if c.Password == "" {
		return errors.New("config param vool.password is required")
	}
	if c.LMCDeviceId == "" {
		return errors.New("config param vool.lmc_device_id is required")
	}
	if c.WallboxDeviceId == "" {
		return errors.New("config param vool.wallbox_device_id is required")
	}
	if c.PollIntervalSeconds < 5 {
		return errors.New("config param vool.poll_interval_seconds should be >= 5")
	}
	return nil
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
