// +build integration

package test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	dbconf "github.com/kthomas/go-db-config"
	redisutil "github.com/kthomas/go-redisutil"
	uuid "github.com/kthomas/go.uuid"

	"github.com/Sumanth9415/workValidaton/common"
	"github.com/Sumanth9415/workValidaton/pow"
	"github.com/Sumanth9415/workValidaton/submission"
	"github.com/Sumanth9415/workValidaton/task"
	"github.com/Sumanth9415/workValidaton/user"
)

// requires a migrated postgres instance and redis, per the env consumed by
// go-db-config and go-redisutil
func init() {
	redisutil.RequireRedis()
}

func workerFactory(t *testing.T) *user.User {
	handle := common.RandomString(8)
	worker := &user.User{
		Username: common.StringOrNil(fmt.Sprintf("worker-%s", handle)),
		Email:    common.StringOrNil(fmt.Sprintf("worker-%s@example.com", handle)),
	}
	if !worker.Create() {
		t.Fatalf("failed to create worker; %v", worker.Errors)
	}
	return worker
}

func taskFactory(t *testing.T, deadline time.Time, reward int64) *task.Task {
	tsk := &task.Task{
		Title:        common.StringOrNil("integration task"),
		Description:  common.StringOrNil("solve and submit"),
		RewardPoints: reward,
		Deadline:     &deadline,
	}
	if !tsk.Create() {
		t.Fatalf("failed to create task; %v", tsk.Errors)
	}
	return tsk
}

func solvedSubmissionFactory(tsk *task.Task, worker *user.User) *submission.Submission {
	input := pow.CanonicalInput(tsk.ID.String(), worker.ID.String())
	solution := pow.SearchNonce(input, common.PowHashPrefix, 1<<22)

	return &submission.Submission{
		TaskID:       tsk.ID,
		WorkerID:     worker.ID,
		SolutionText: common.StringOrNil("the answer"),
		Nonce:        solution.Nonce,
		Hash:         common.StringOrNil(solution.Hash),
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	sub := solvedSubmissionFactory(tsk, worker)
	if err := sub.Create(); err != nil {
		t.Fatalf("failed to create submission; %s", err.Error())
	}
	if *sub.Status != submission.SubmissionStatusPending {
		t.Fatalf("expected pending status; got %s", *sub.Status)
	}

	// duplicate while pending
	dup := solvedSubmissionFactory(tsk, worker)
	if err := dup.Create(); err != submission.ErrDuplicateSubmission {
		t.Fatalf("expected duplicate submission rejection; got %v", err)
	}

	// accept credits the reward exactly once
	if err := sub.Review(submission.SubmissionStatusAccepted); err != nil {
		t.Fatalf("failed to accept submission; %s", err.Error())
	}

	credited := user.Find(worker.ID)
	if credited.Points != tsk.RewardPoints {
		t.Fatalf("expected %d points; got %d", tsk.RewardPoints, credited.Points)
	}

	// terminal status is immutable
	processed := submission.Find(sub.ID)
	if err := processed.Review(submission.SubmissionStatusAccepted); err != submission.ErrAlreadyProcessed {
		t.Fatalf("expected already processed rejection; got %v", err)
	}

	recredited := user.Find(worker.ID)
	if recredited.Points != tsk.RewardPoints {
		t.Fatalf("points credited more than once; got %d", recredited.Points)
	}
}

func TestSubmissionDeadlinePrecedesProofOfWork(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(-time.Hour), 10)

	// a valid proof must still be rejected once the window closes
	sub := solvedSubmissionFactory(tsk, worker)
	if err := sub.Create(); err != submission.ErrDeadlinePassed {
		t.Fatalf("expected deadline rejection; got %v", err)
	}
}

func TestSubmissionRejectsUnverifiableProof(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	sub := solvedSubmissionFactory(tsk, worker)
	sub.Nonce++ // invalidates the recomputed digest

	if err := sub.Create(); err != submission.ErrInvalidProofOfWork {
		t.Fatalf("expected proof of work rejection; got %v", err)
	}
}

func TestSubmissionRequiresSolutionContent(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	sub := solvedSubmissionFactory(tsk, worker)
	sub.SolutionText = nil

	if err := sub.Create(); err != submission.ErrMissingSolution {
		t.Fatalf("expected missing solution rejection; got %v", err)
	}
}

func TestResubmissionAllowedAfterRejection(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	sub := solvedSubmissionFactory(tsk, worker)
	if err := sub.Create(); err != nil {
		t.Fatalf("failed to create submission; %s", err.Error())
	}
	if err := sub.Review(submission.SubmissionStatusRejected); err != nil {
		t.Fatalf("failed to reject submission; %s", err.Error())
	}

	unchanged := user.Find(worker.ID)
	if unchanged.Points != 0 {
		t.Fatalf("rejection must not credit points; got %d", unchanged.Points)
	}

	retry := solvedSubmissionFactory(tsk, worker)
	if err := retry.Create(); err != nil {
		t.Fatalf("expected resubmission after rejection to succeed; got %v", err)
	}
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	// solve once; every contender races with an identical valid proof
	template := solvedSubmissionFactory(tsk, worker)

	const contenders = 8
	results := make(chan error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &submission.Submission{
				TaskID:       template.TaskID,
				WorkerID:     template.WorkerID,
				SolutionText: template.SolutionText,
				Nonce:        template.Nonce,
				Hash:         template.Hash,
			}
			results <- sub.Create()
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
		} else if err != submission.ErrDuplicateSubmission {
			t.Fatalf("expected duplicate submission rejection; got %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one live submission; got %d", created)
	}
}

func TestWorkerSubmissionListingIsolation(t *testing.T) {
	workerA := workerFactory(t)
	workerB := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	for _, worker := range []*user.User{workerA, workerB} {
		sub := solvedSubmissionFactory(tsk, worker)
		if err := sub.Create(); err != nil {
			t.Fatalf("failed to create submission; %s", err.Error())
		}
	}

	// the per-worker listing filter must never leak another worker's rows
	db := dbconf.DatabaseConnection()
	var submissions []*submission.Submission
	db.Where("worker_id = ?", workerA.ID).Find(&submissions)

	if len(submissions) != 1 {
		t.Fatalf("expected a single submission for worker %s; got %d", workerA.ID, len(submissions))
	}
	if submissions[0].WorkerID.String() != workerA.ID.String() {
		t.Fatalf("listing leaked a foreign submission; got worker %s", submissions[0].WorkerID)
	}
}

func TestPointsRedemption(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 25)

	sub := solvedSubmissionFactory(tsk, worker)
	if err := sub.Create(); err != nil {
		t.Fatalf("failed to create submission; %s", err.Error())
	}
	if err := sub.Review(submission.SubmissionStatusAccepted); err != nil {
		t.Fatalf("failed to accept submission; %s", err.Error())
	}

	// the balance guard rejects overdraws without mutating the balance
	if _, err := user.RedeemPoints(worker.ID, 100); err != user.ErrInsufficientPoints {
		t.Fatalf("expected insufficient points rejection; got %v", err)
	}
	if balance := user.Find(worker.ID); balance.Points != tsk.RewardPoints {
		t.Fatalf("overdraw attempt mutated the balance; got %d", balance.Points)
	}

	redeemed, err := user.RedeemPoints(worker.ID, 10)
	if err != nil {
		t.Fatalf("failed to redeem points; %s", err.Error())
	}
	if redeemed.Points != 15 {
		t.Fatalf("expected 15 points after redemption; got %d", redeemed.Points)
	}

	unknown, _ := uuid.NewV4()
	if _, err := user.RedeemPoints(unknown, 1); err != user.ErrUserNotFound {
		t.Fatalf("expected user not found rejection; got %v", err)
	}
}

func TestTaskDeletion(t *testing.T) {
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	if !tsk.Delete() {
		t.Fatalf("failed to delete task; %v", tsk.Errors)
	}
	if task.Find(tsk.ID) != nil {
		t.Fatalf("task %s survived deletion", tsk.ID)
	}
}

func TestTaskDeletionBlockedBySubmissions(t *testing.T) {
	worker := workerFactory(t)
	tsk := taskFactory(t, time.Now().Add(time.Hour), 10)

	sub := solvedSubmissionFactory(tsk, worker)
	if err := sub.Create(); err != nil {
		t.Fatalf("failed to create submission; %s", err.Error())
	}

	if tsk.Delete() {
		t.Fatal("expected deletion to fail while submissions reference the task")
	}
	if task.Find(tsk.ID) == nil {
		t.Fatalf("referenced task %s was deleted", tsk.ID)
	}
}
