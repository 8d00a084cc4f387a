package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/bridge/refresh"
	r := refreshCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 1, "refresh command match")
}

func TestRefreshCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/bridge/state"
	r := refreshCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestTopics(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("vool/bridge/state", bridgeStateTopic("vool"))
	assert.Equal("vool/bridge/refresh", refreshCommandTopic("vool"))
}
