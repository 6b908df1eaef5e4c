// +build unit

package submission

import (
	"testing"

	uuid "github.com/kthomas/go.uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Sumanth9415/workValidaton/common"
)

func TestValidateContentRequiresExactlyOneSolution(t *testing.T) {
	fileID, _ := uuid.NewV4()

	// neither present
	s := &Submission{}
	assert.Equal(t, ErrMissingSolution, s.validateContent())

	// empty text is not a solution
	s = &Submission{SolutionText: common.StringOrNil("")}
	assert.Equal(t, ErrMissingSolution, s.validateContent())

	// both present
	s = &Submission{
		SolutionText:   common.StringOrNil("my answer"),
		SolutionFileID: &fileID,
	}
	assert.Equal(t, ErrMissingSolution, s.validateContent())

	// text only
	s = &Submission{SolutionText: common.StringOrNil("my answer")}
	assert.Nil(t, s.validateContent())

	// file only
	s = &Submission{SolutionFileID: &fileID}
	assert.Nil(t, s.validateContent())
}

func TestReviewRejectsNonPendingSubmission(t *testing.T) {
	for _, status := range []string{SubmissionStatusAccepted, SubmissionStatusRejected} {
		s := &Submission{Status: common.StringOrNil(status)}
		assert.Equal(t, ErrAlreadyProcessed, s.Review(SubmissionStatusAccepted))
		assert.Equal(t, ErrAlreadyProcessed, s.Review(SubmissionStatusRejected))
	}
}

func TestReviewRejectsInvalidTargetStatus(t *testing.T) {
	s := &Submission{Status: common.StringOrNil(SubmissionStatusPending)}

	err := s.Review("pending")
	assert.Error(t, err)
	assert.NotEqual(t, ErrAlreadyProcessed, err)

	assert.Error(t, s.Review("approved"))
	assert.Error(t, s.Review(""))
}

func TestStatusForErrorMapsDistinctReasons(t *testing.T) {
	assert.Equal(t, 404, statusForError(ErrTaskNotFound))
	assert.Equal(t, 404, statusForError(ErrSubmissionNotFound))
	assert.Equal(t, 400, statusForError(ErrDeadlinePassed))
	assert.Equal(t, 400, statusForError(ErrInvalidProofOfWork))
	assert.Equal(t, 400, statusForError(ErrDuplicateSubmission))
	assert.Equal(t, 400, statusForError(ErrMissingSolution))
	assert.Equal(t, 400, statusForError(ErrAlreadyProcessed))
	assert.Equal(t, 500, statusForError(assert.AnError))
}

func TestLifecycleFailureReasonsAreDistinct(t *testing.T) {
	reasons := []error{
		ErrTaskNotFound,
		ErrSubmissionNotFound,
		ErrDeadlinePassed,
		ErrInvalidProofOfWork,
		ErrDuplicateSubmission,
		ErrMissingSolution,
		ErrAlreadyProcessed,
	}

	seen := map[string]bool{}
	for _, reason := range reasons {
		assert.False(t, seen[reason.Error()], "duplicate failure reason: %s", reason.Error())
		seen[reason.Error()] = true
	}
}

func TestNotificationSubjectsAreWorkerScoped(t *testing.T) {
	submissionID, _ := uuid.NewV4()
	workerID, _ := uuid.NewV4()

	s := &Submission{WorkerID: workerID}
	s.ID = submissionID

	prefix := s.notificationsSubjectPrefix()
	assert.Equal(t, "workvalidation.submission.notification."+workerID.String()+"."+submissionID.String(), *prefix)

	subject := s.notificationsSubject(SubmissionStatusAccepted)
	assert.Equal(t, *prefix+".accepted", *subject)
}
