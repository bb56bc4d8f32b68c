package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/feedmix/pkg/logger"
)

func TestParseIDs_WarnsOnMalformed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger.ReplaceGlobal(zap.New(core))
	t.Cleanup(func() { logger.ReplaceGlobal(nil) })

	assert.Equal(t, []int64{1, 3, 7}, parseIDs("POSTS", " 1, x2 ,3,,7"))

	entries := logs.FilterMessage("skip malformed id").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "x2", entries[0].ContextMap()["value"])
		assert.Equal(t, "POSTS", entries[0].ContextMap()["env"])
	}
}

func TestEnvIDs_FallsBackToDefault(t *testing.T) {
	t.Setenv("FEEDDEMO_TEST_IDS", "")
	assert.Equal(t, []int64{4, 5}, envIDs("FEEDDEMO_TEST_IDS", "4,5"))
	t.Setenv("FEEDDEMO_TEST_IDS", "9")
	assert.Equal(t, []int64{9}, envIDs("FEEDDEMO_TEST_IDS", "4,5"))
}
