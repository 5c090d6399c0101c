package main

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

type recordingProfileSetter struct {
	profiles []string
	err      error
}

func (s *recordingProfileSetter) SetProfile(profile string) error {
	s.profiles = append(s.profiles, profile)
	return s.err
}

func TestSetFeedbackdProfile(t *testing.T) {
	logger = slog.Default()

	setter := &recordingProfileSetter{}
	assert.NoError(t, setFeedbackdProfile(setter, feedback.RingerSilent))
	assert.NoError(t, setFeedbackdProfile(setter, feedback.RingerNormal))
	assert.Equal(t, []string{"silent", "full"}, setter.profiles)

	failing := &recordingProfileSetter{err: errors.New("access denied")}
	assert.Error(t, setFeedbackdProfile(failing, feedback.RingerNormal))
}
