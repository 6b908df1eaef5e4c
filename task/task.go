/*
 * Copyright 2017-2022 Provide Technologies Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package task

import (
	"time"

	dbconf "github.com/kthomas/go-db-config"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/api"

	"github.com/Sumanth9415/workValidaton/common"
)

// TaskDifficultyEasy, TaskDifficultyMedium and TaskDifficultyHard are the
// advertised difficulty tiers; they describe the work itself, not the
// proof-of-work prefix rule
const TaskDifficultyEasy = "easy"
const TaskDifficultyMedium = "medium"
const TaskDifficultyHard = "hard"

// Task model; read-only from the submission lifecycle's perspective except
// for reward point lookups
type Task struct {
	provide.Model

	Title        *string    `sql:"not null" json:"title"`
	Description  *string    `sql:"not null" json:"description"`
	Difficulty   *string    `sql:"not null;default:'medium'" json:"difficulty"`
	RewardPoints int64      `sql:"not null" json:"reward_points"`
	Deadline     *time.Time `sql:"not null" json:"deadline"`

	// Association to the admin who posted the task
	AdminID *uuid.UUID `sql:"type:uuid" json:"admin_id"`
}

// Find loads the task for the given identifier; returns nil if absent
func Find(taskID uuid.UUID) *Task {
	db := dbconf.DatabaseConnection()
	task := &Task{}
	db.Where("id = ?", taskID).Find(&task)
	if task == nil || task.ID == uuid.Nil {
		return nil
	}
	return task
}

// Expired returns true if the task's submission window has closed
func (t *Task) Expired() bool {
	return t.Deadline != nil && time.Now().After(*t.Deadline)
}

// Create a task
func (t *Task) Create() bool {
	if !t.validate() {
		return false
	}

	db := dbconf.DatabaseConnection()

	if db.NewRecord(t) {
		result := db.Create(&t)
		rowsAffected := result.RowsAffected
		errors := result.GetErrors()
		if len(errors) > 0 {
			for _, err := range errors {
				t.Errors = append(t.Errors, &provide.Error{
					Message: common.StringOrNil(err.Error()),
				})
			}
		}
		if !db.NewRecord(t) {
			success := rowsAffected > 0
			if success {
				common.Log.Debugf("initialized %s task: %s; reward: %d points", *t.Difficulty, t.ID, t.RewardPoints)
			}

			return success
		}
	}

	return false
}

// Delete the task; fails when submissions still reference it
func (t *Task) Delete() bool {
	db := dbconf.DatabaseConnection()
	result := db.Delete(&t)
	errors := result.GetErrors()
	if len(errors) > 0 {
		for _, err := range errors {
			t.Errors = append(t.Errors, &provide.Error{
				Message: common.StringOrNil(err.Error()),
			})
		}
	}
	return len(errors) == 0
}

// validate the task params
func (t *Task) validate() bool {
	t.Errors = make([]*provide.Error, 0)

	if t.Title == nil {
		t.Errors = append(t.Errors, &provide.Error{
			Message: common.StringOrNil("task title required"),
		})
	}

	if t.Description == nil {
		t.Errors = append(t.Errors, &provide.Error{
			Message: common.StringOrNil("task description required"),
		})
	}

	if t.Difficulty == nil {
		t.Difficulty = common.StringOrNil(TaskDifficultyMedium)
	} else if *t.Difficulty != TaskDifficultyEasy && *t.Difficulty != TaskDifficultyMedium && *t.Difficulty != TaskDifficultyHard {
		t.Errors = append(t.Errors, &provide.Error{
			Message: common.StringOrNil("task difficulty must be easy, medium or hard"),
		})
	}

	if t.RewardPoints < 1 {
		t.Errors = append(t.Errors, &provide.Error{
			Message: common.StringOrNil("task reward must be at least 1 point"),
		})
	}

	if t.Deadline == nil {
		t.Errors = append(t.Errors, &provide.Error{
			Message: common.StringOrNil("task deadline required"),
		})
	}

	return len(t.Errors) == 0
}
