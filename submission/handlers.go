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
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbconf "github.com/kthomas/go-db-config"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/common"
	util "github.com/provideplatform/provide-go/common/util"

	"github.com/Sumanth9415/workValidaton/common"
	"github.com/Sumanth9415/workValidaton/pow"
	"github.com/Sumanth9415/workValidaton/store"
	"github.com/Sumanth9415/workValidaton/task"
)

// InstallAPI registers the submission lifecycle API handlers with gin
func InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/tasks/:id/pow", challengeDetailsHandler)
	r.POST("/api/v1/tasks/:id/submissions", createSubmissionHandler)
	r.GET("/api/v1/tasks/:id/submissions", listTaskSubmissionsHandler)

	r.GET("/api/v1/submissions", listSubmissionsHandler)
	r.GET("/api/v1/submissions/worker/:id", listWorkerSubmissionsHandler)
	r.GET("/api/v1/submissions/:id", submissionDetailsHandler)
	r.PUT("/api/v1/submissions/:id/status", updateSubmissionStatusHandler)

	// legacy route shape; the path param is the task id
	r.POST("/api/v1/submissions/:id", createSubmissionHandler)
}

// statusForError maps a lifecycle failure reason to its HTTP status
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrSubmissionNotFound):
		return 404
	case errors.Is(err, ErrDeadlinePassed),
		errors.Is(err, ErrInvalidProofOfWork),
		errors.Is(err, ErrDuplicateSubmission),
		errors.Is(err, ErrMissingSolution),
		errors.Is(err, ErrAlreadyProcessed):
		return 400
	default:
		return 500
	}
}

func renderLifecycleError(err error, c *gin.Context) {
	status := statusForError(err)
	if status == 500 {
		common.Log.Warningf("submission lifecycle failure; %s", err.Error())
		provide.RenderError("internal persistence error", status, c)
		return
	}
	provide.RenderError(err.Error(), status, c)
}

// advertise the puzzle parameters for the authenticated worker; clients never
// duplicate the canonicalization rule
func challengeDetailsHandler(c *gin.Context) {
	workerID := util.AuthorizedSubjectID(c, "user")
	if workerID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	if task.Find(taskID) == nil {
		provide.RenderError("task not found", 404, c)
		return
	}

	provide.Render(map[string]interface{}{
		"canonical_input": pow.CanonicalInput(taskID.String(), workerID.String()),
		"hash_prefix":     common.PowHashPrefix,
		"max_attempts":    common.PowMaxAttempts,
	}, 200, c)
}

// submit a solution for a task; multipart for file uploads, JSON otherwise
func createSubmissionHandler(c *gin.Context) {
	workerID := util.AuthorizedSubjectID(c, "user")
	if workerID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	submission := &Submission{
		TaskID:   taskID,
		WorkerID: *workerID,
	}

	var artifact *store.Store

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		submission.SolutionText = common.StringOrNil(c.PostForm("solution_text"))

		nonce, nonceErr := strconv.ParseInt(c.PostForm("nonce"), 10, 64)
		if nonceErr != nil {
			provide.RenderError("nonce must be a base-10 integer", 422, c)
			return
		}
		submission.Nonce = nonce
		submission.Hash = common.StringOrNil(c.PostForm("hash"))

		if hdr, fileErr := c.FormFile("solutionFile"); fileErr == nil {
			f, openErr := hdr.Open()
			if openErr != nil {
				provide.RenderError(openErr.Error(), 400, c)
				return
			}
			defer f.Close()

			data, readErr := io.ReadAll(f)
			if readErr != nil {
				provide.RenderError(readErr.Error(), 400, c)
				return
			}

			artifact, err = store.SaveSolutionArtifact(taskID, *workerID, hdr.Filename, data)
			if err != nil {
				common.Log.Warningf("failed to persist solution artifact for task %s; %s", taskID, err.Error())
				provide.RenderError("failed to persist solution file", 500, c)
				return
			}
			submission.SolutionFileID = &artifact.ID
		}
	} else {
		buf, rawErr := c.GetRawData()
		if rawErr != nil {
			provide.RenderError(rawErr.Error(), 400, c)
			return
		}

		params := &struct {
			SolutionText *string `json:"solution_text"`
			Nonce        *string `json:"nonce"`
			Hash         *string `json:"hash"`
		}{}
		err = json.Unmarshal(buf, &params)
		if err != nil {
			provide.RenderError(err.Error(), 422, c)
			return
		}

		if params.Nonce == nil {
			provide.RenderError("nonce required", 422, c)
			return
		}
		nonce, nonceErr := strconv.ParseInt(*params.Nonce, 10, 64)
		if nonceErr != nil {
			provide.RenderError("nonce must be a base-10 integer", 422, c)
			return
		}

		submission.SolutionText = params.SolutionText
		submission.Nonce = nonce
		submission.Hash = params.Hash
	}

	err = submission.Create()
	if err != nil {
		if artifact != nil && !artifact.Delete() {
			common.Log.Warningf("failed to remove orphaned solution artifact %s", artifact.ID)
		}
		renderLifecycleError(err, c)
		return
	}

	provide.Render(submission, 201, c)
}

// list submissions for a task; admin-only
func listTaskSubmissionsHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	if adminID == nil {
		provide.RenderError("forbidden", 403, c)
		return
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Where("task_id = ?", taskID).Order("created_at DESC")

	var submissions []*Submission
	provide.Paginate(c, query, &Submission{}).Find(&submissions)
	provide.Render(submissions, 200, c)
}

// list the authenticated worker's own submissions
func listSubmissionsHandler(c *gin.Context) {
	workerID := util.AuthorizedSubjectID(c, "user")
	if workerID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Where("worker_id = ?", workerID).Order("created_at DESC")

	var submissions []*Submission
	provide.Paginate(c, query, &Submission{}).Find(&submissions)
	provide.Render(submissions, 200, c)
}

// list a specific worker's submissions; admin-only
func listWorkerSubmissionsHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	if adminID == nil {
		provide.RenderError("forbidden", 403, c)
		return
	}

	workerID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Where("worker_id = ?", workerID).Order("created_at DESC")

	var submissions []*Submission
	provide.Paginate(c, query, &Submission{}).Find(&submissions)
	provide.Render(submissions, 200, c)
}

// fetch submission details; admins and the owning worker only
func submissionDetailsHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	workerID := util.AuthorizedSubjectID(c, "user")
	if adminID == nil && workerID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	submissionID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	submission := Find(submissionID)
	if submission == nil {
		provide.RenderError("submission not found", 404, c)
		return
	}

	if adminID == nil && workerID.String() != submission.WorkerID.String() {
		provide.RenderError("submission not found", 404, c)
		return
	}

	provide.Render(submission, 200, c)
}

// accept or reject a pending submission; admin-only
func updateSubmissionStatusHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	if adminID == nil {
		provide.RenderError("forbidden", 403, c)
		return
	}

	submissionID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	buf, err := c.GetRawData()
	if err != nil {
		provide.RenderError(err.Error(), 400, c)
		return
	}

	params := &struct {
		Status *string `json:"status"`
	}{}
	err = json.Unmarshal(buf, &params)
	if err != nil {
		provide.RenderError(err.Error(), 422, c)
		return
	}

	if params.Status == nil || (*params.Status != SubmissionStatusAccepted && *params.Status != SubmissionStatusRejected) {
		provide.RenderError("status must be accepted or rejected", 422, c)
		return
	}

	submission := Find(submissionID)
	if submission == nil {
		provide.RenderError("submission not found", 404, c)
		return
	}

	err = submission.Review(*params.Status)
	if err != nil {
		renderLifecycleError(err, c)
		return
	}

	provide.Render(submission, 200, c)
}
