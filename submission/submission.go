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

package submission

import (
	"encoding/json"
	"errors"
	"fmt"

	dbconf "github.com/kthomas/go-db-config"
	natsutil "github.com/kthomas/go-natsutil"
	redisutil "github.com/kthomas/go-redisutil"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/api"

	"github.com/Sumanth9415/workValidaton/common"
	"github.com/Sumanth9415/workValidaton/pow"
	"github.com/Sumanth9415/workValidaton/task"
	"github.com/Sumanth9415/workValidaton/user"
)

// SubmissionStatusPending is the initial state; accepted and rejected are terminal
const SubmissionStatusPending = "pending"
const SubmissionStatusAccepted = "accepted"
const SubmissionStatusRejected = "rejected"

// Creation and review preconditions fail with distinct, machine-checkable
// reasons; callers and tests branch on cause, never on a generic failure
var (
	// ErrTaskNotFound - the referenced task does not exist
	ErrTaskNotFound = errors.New("task not found")

	// ErrSubmissionNotFound - the referenced submission does not exist
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrDeadlinePassed - the task's submission window has closed
	ErrDeadlinePassed = errors.New("task deadline has passed")

	// ErrInvalidProofOfWork - the claimed nonce/hash pair failed verification;
	// the caller should re-run the nonce search and resubmit
	ErrInvalidProofOfWork = errors.New("invalid proof of work")

	// ErrDuplicateSubmission - a pending or accepted submission already exists
	// for this (task, worker) pair; resubmission requires a prior rejection
	ErrDuplicateSubmission = errors.New("solution already submitted for this task")

	// ErrMissingSolution - exactly one of solution text or solution file is required
	ErrMissingSolution = errors.New("exactly one of solution text or solution file required")

	// ErrAlreadyProcessed - submission status is immutable once non-pending
	ErrAlreadyProcessed = errors.New("submission already processed")
)

// Submission model; created once per (task, worker) pair while no pending or
// accepted submission exists for that pair, and mutated only by Review
type Submission struct {
	provide.Model

	TaskID   uuid.UUID `sql:"not null;type:uuid" json:"task_id"`
	WorkerID uuid.UUID `sql:"not null;type:uuid" json:"worker_id"`

	// Exactly one of the solution fields is present; the file reference points
	// at a persisted artifact record
	SolutionText   *string    `json:"solution_text,omitempty"`
	SolutionFileID *uuid.UUID `sql:"type:uuid" json:"solution_file_id,omitempty"`

	// Proof-of-work receipt; recomputed server-side at creation, never trusted
	Nonce int64   `sql:"not null" json:"nonce"`
	Hash  *string `sql:"not null" json:"hash"`

	Status *string `sql:"not null;default:'pending'" json:"status"`
}

// Find loads the submission for the given identifier; returns nil if absent
func Find(submissionID uuid.UUID) *Submission {
	db := dbconf.DatabaseConnection()
	submission := &Submission{}
	db.Where("id = ?", submissionID).Find(&submission)
	if submission == nil || submission.ID == uuid.Nil {
		return nil
	}
	return submission
}

// Create runs the submission gate. Checks are sequential and short-circuit on
// the first failing precondition: task lookup, deadline, proof-of-work,
// duplicate live submission, solution content. The duplicate check and the
// insert execute under a distributed lock per (task, worker) pair; a partial
// unique index backstops the at-most-one-live-submission invariant at the
// persistence layer.
func (s *Submission) Create() error {
	tsk := task.Find(s.TaskID)
	if tsk == nil {
		return ErrTaskNotFound
	}

	if tsk.Expired() {
		return ErrDeadlinePassed
	}

	if s.Hash == nil || !pow.Verify(s.TaskID.String(), s.WorkerID.String(), s.Nonce, *s.Hash, common.PowHashPrefix) {
		return ErrInvalidProofOfWork
	}

	lockKey := fmt.Sprintf("workvalidation.submission.lock.%s.%s", s.TaskID, s.WorkerID)
	err := redisutil.WithRedlock(lockKey, func() error {
		if s.hasLiveSibling() {
			return ErrDuplicateSubmission
		}

		if err := s.validateContent(); err != nil {
			return err
		}

		s.Status = common.StringOrNil(SubmissionStatusPending)

		db := dbconf.DatabaseConnection()
		result := db.Create(&s)
		errors := result.GetErrors()
		if len(errors) > 0 {
			return fmt.Errorf("failed to persist submission for task %s; %s", s.TaskID, errors[0].Error())
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("failed to persist submission for task %s", s.TaskID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	common.Log.Debugf("initialized pending submission %s for task %s by worker %s", s.ID, s.TaskID, s.WorkerID)

	payload, _ := json.Marshal(map[string]interface{}{
		"submission_id": s.ID.String(),
		"task_id":       s.TaskID.String(),
		"worker_id":     s.WorkerID.String(),
	})
	natsutil.NatsJetstreamPublish(natsSubmissionCreatedSubject, payload)

	return nil
}

// Review applies the admin decision; pending to accepted or rejected, one-way.
// On acceptance the worker is credited the task's reward points within the
// same transaction as the status write, so a crash cannot leave an accepted
// submission without its credit.
func (s *Submission) Review(status string) error {
	if status != SubmissionStatusAccepted && status != SubmissionStatusRejected {
		return fmt.Errorf("invalid review status: %s", status)
	}

	if s.Status == nil || *s.Status != SubmissionStatusPending {
		return ErrAlreadyProcessed
	}

	db := dbconf.DatabaseConnection()
	tx := db.Begin()
	if len(tx.GetErrors()) > 0 {
		return fmt.Errorf("failed to open review transaction; %s", tx.GetErrors()[0].Error())
	}

	// the guarded update also serializes concurrent reviews of the same submission
	result := tx.Model(&Submission{}).Where("id = ? AND status = ?", s.ID, SubmissionStatusPending).Update("status", status)
	if errors := result.GetErrors(); len(errors) > 0 {
		tx.Rollback()
		return fmt.Errorf("failed to update submission %s status; %s", s.ID, errors[0].Error())
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrAlreadyProcessed
	}

	if status == SubmissionStatusAccepted {
		tsk := task.Find(s.TaskID)
		if tsk == nil {
			tx.Rollback()
			return ErrTaskNotFound
		}

		if err := user.CreditPoints(tx, s.WorkerID, tsk.RewardPoints); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to credit reward for submission %s; %s", s.ID, err.Error())
		}
	}

	if errors := tx.Commit().GetErrors(); len(errors) > 0 {
		return fmt.Errorf("failed to commit review of submission %s; %s", s.ID, errors[0].Error())
	}

	s.Status = common.StringOrNil(status)
	common.Log.Debugf("submission %s reviewed; status: %s", s.ID, status)

	payload, _ := json.Marshal(map[string]interface{}{
		"submission_id": s.ID.String(),
		"task_id":       s.TaskID.String(),
		"worker_id":     s.WorkerID.String(),
		"status":        status,
	})
	if status == SubmissionStatusAccepted {
		natsutil.NatsJetstreamPublish(natsSubmissionAcceptedSubject, payload)
	} else {
		natsutil.NatsJetstreamPublish(natsSubmissionRejectedSubject, payload)
	}

	if _, err := s.dispatchNotification(status); err != nil {
		common.Log.Warningf("failed to dispatch %s notification for submission %s; %s", status, s.ID, err.Error())
	}

	return nil
}

// hasLiveSibling returns true if a pending or accepted submission already
// exists for this submission's (task, worker) pair
func (s *Submission) hasLiveSibling() bool {
	db := dbconf.DatabaseConnection()

	var count int
	db.Model(&Submission{}).Where(
		"task_id = ? AND worker_id = ? AND status IN (?)",
		s.TaskID, s.WorkerID, []string{SubmissionStatusPending, SubmissionStatusAccepted},
	).Count(&count)
	return count > 0
}

// validateContent enforces exactly one of solution text or solution file
func (s *Submission) validateContent() error {
	hasText := s.SolutionText != nil && *s.SolutionText != ""
	hasFile := s.SolutionFileID != nil

	if hasText == hasFile {
		return ErrMissingSolution
	}
	return nil
}
