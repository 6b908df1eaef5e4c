// +build unit

package task

import (
	"testing"
	"time"

	provide "github.com/provideplatform/provide-go/api"
	"github.com/stretchr/testify/assert"

	"github.com/Sumanth9415/workValidaton/common"
)

func validTask() *Task {
	deadline := time.Now().Add(time.Hour * 24)
	return &Task{
		Title:        common.StringOrNil("implement the thing"),
		Description:  common.StringOrNil("do the work and submit evidence"),
		Difficulty:   common.StringOrNil(TaskDifficultyMedium),
		RewardPoints: 10,
		Deadline:     &deadline,
	}
}

func errorMessages(errors []*provide.Error) []string {
	msgs := make([]string, 0, len(errors))
	for _, err := range errors {
		msgs = append(msgs, *err.Message)
	}
	return msgs
}

func TestTaskValidation(t *testing.T) {
	task := validTask()
	assert.True(t, task.validate())
	assert.Empty(t, task.Errors)
}

func TestTaskValidationRequiresTitleAndDescription(t *testing.T) {
	task := validTask()
	task.Title = nil
	task.Description = nil

	assert.False(t, task.validate())
	assert.Contains(t, errorMessages(task.Errors), "task title required")
	assert.Contains(t, errorMessages(task.Errors), "task description required")
}

func TestTaskValidationDefaultsDifficulty(t *testing.T) {
	task := validTask()
	task.Difficulty = nil

	assert.True(t, task.validate())
	assert.Equal(t, TaskDifficultyMedium, *task.Difficulty)
}

func TestTaskValidationRejectsUnknownDifficulty(t *testing.T) {
	task := validTask()
	task.Difficulty = common.StringOrNil("impossible")

	assert.False(t, task.validate())
}

func TestTaskValidationRequiresPositiveReward(t *testing.T) {
	task := validTask()
	task.RewardPoints = 0

	assert.False(t, task.validate())
	assert.Contains(t, errorMessages(task.Errors), "task reward must be at least 1 point")
}

func TestTaskValidationRequiresDeadline(t *testing.T) {
	task := validTask()
	task.Deadline = nil

	assert.False(t, task.validate())
}

func TestTaskExpired(t *testing.T) {
	task := validTask()
	assert.False(t, task.Expired())

	passed := time.Now().Add(-time.Minute)
	task.Deadline = &passed
	assert.True(t, task.Expired())
}
