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
	"fmt"
	"sync"
	"time"

	natsutil "github.com/kthomas/go-natsutil"
	"github.com/nats-io/nats.go"

	"github.com/Sumanth9415/workValidaton/common"
	"github.com/Sumanth9415/workValidaton/user"
)

const defaultNatsStream = "workvalidation"

const natsSubmissionCreatedSubject = "workvalidation.submission.created"
const natsSubmissionAcceptedSubject = "workvalidation.submission.accepted"
const natsSubmissionRejectedSubject = "workvalidation.submission.rejected"

const natsSubmissionAcceptedMaxInFlight = 32
const submissionAcceptedAckWait = time.Minute * 5
const submissionAcceptedMaxDeliveries = 5

func init() {
	if !common.ConsumeNATSStreamingSubscriptions {
		common.Log.Debug("submission package consumer configured to skip NATS streaming subscription setup")
		return
	}

	natsutil.EstablishSharedNatsConnection(nil)
	natsutil.NatsCreateStream(defaultNatsStream, []string{
		fmt.Sprintf("%s.>", defaultNatsStream),
	})

	var waitGroup sync.WaitGroup

	createNatsSubmissionAcceptedSubscriptions(&waitGroup)
}

func createNatsSubmissionAcceptedSubscriptions(wg *sync.WaitGroup) {
	for i := uint64(0); i < natsutil.GetNatsConsumerConcurrency(); i++ {
		natsutil.RequireNatsJetstreamSubscription(wg,
			submissionAcceptedAckWait,
			natsSubmissionAcceptedSubject,
			natsSubmissionAcceptedSubject,
			natsSubmissionAcceptedSubject,
			consumeSubmissionAcceptedMsg,
			submissionAcceptedAckWait,
			natsSubmissionAcceptedMaxInFlight,
			submissionAcceptedMaxDeliveries,
			nil,
		)
	}
}

// consumeSubmissionAcceptedMsg rebuilds the leaderboard cache after a reward
// credit lands; the credit itself commits with the status write, so this
// consumer only refreshes derived state
func consumeSubmissionAcceptedMsg(msg *nats.Msg) {
	defer func() {
		if r := recover(); r != nil {
			common.Log.Warningf("recovered during submission accepted message handling; %s", r)
			msg.Nak()
		}
	}()

	common.Log.Debugf("consuming %d-byte NATS submission accepted message on subject: %s", len(msg.Data), msg.Subject)

	params := map[string]interface{}{}
	err := json.Unmarshal(msg.Data, &params)
	if err != nil {
		common.Log.Warningf("failed to unmarshal submission accepted message; %s", err.Error())
		msg.Nak()
		return
	}

	if _, submissionIDOk := params["submission_id"].(string); !submissionIDOk {
		common.Log.Warning("failed to unmarshal submission_id during accepted message handler")
		msg.Nak()
		return
	}

	_, err = user.RefreshLeaderboardCache()
	if err != nil {
		common.Log.Warningf("failed to refresh leaderboard cache; %s", err.Error())
		msg.Nak()
		return
	}

	msg.Ack()
}
