package submission

import (
	"encoding/json"
	"fmt"

	natsutil "github.com/kthomas/go-natsutil"
	"github.com/nats-io/nats.go"

	"github.com/Sumanth9415/workValidaton/common"
)

// dispatchNotification broadcasts a review event to the worker's notification subject
func (s *Submission) dispatchNotification(event string) (*nats.PubAck, error) {
	prefix := s.notificationsSubjectPrefix()
	if event == "" {
		return nil, fmt.Errorf("failed to dispatch event notification for submission %s", s.ID.String())
	}
	subject := fmt.Sprintf("%s.%s", *prefix, event)
	payload, _ := json.Marshal(map[string]interface{}{
		"submission_id": s.ID.String(),
		"task_id":       s.TaskID.String(),
	})
	return natsutil.NatsJetstreamPublish(subject, payload)
}

// notificationsSubject returns a namespaced subject suitable for pub/sub subscriptions
func (s *Submission) notificationsSubject(suffix string) *string {
	prefix := s.notificationsSubjectPrefix()
	if suffix == "" {
		return prefix
	}
	return common.StringOrNil(fmt.Sprintf("%s.%s", *prefix, suffix))
}

// notificationsSubjectPrefix returns the pub/sub subject prefix scoped to the owning worker
func (s *Submission) notificationsSubjectPrefix() *string {
	return common.StringOrNil(fmt.Sprintf("workvalidation.submission.notification.%s.%s", s.WorkerID.String(), s.ID.String()))
}
