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
	"encoding/json"

	"github.com/gin-gonic/gin"
	dbconf "github.com/kthomas/go-db-config"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/common"
	util "github.com/provideplatform/provide-go/common/util"
)

// InstallAPI registers the task registry API handlers with gin
func InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/tasks", listTasksHandler)
	r.POST("/api/v1/tasks", createTaskHandler)
	r.GET("/api/v1/tasks/:id", taskDetailsHandler)
	r.DELETE("/api/v1/tasks/:id", deleteTaskHandler)
}

// list/query open tasks
func listTasksHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	userID := util.AuthorizedSubjectID(c, "user")
	if adminID == nil && userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	db := dbconf.DatabaseConnection()
	query := db.Order("deadline ASC")

	var tasks []*Task
	provide.Paginate(c, query, &Task{}).Find(&tasks)
	provide.Render(tasks, 200, c)
}

// post a task; admin-only
func createTaskHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	if adminID == nil {
		provide.RenderError("forbidden", 403, c)
		return
	}

	buf, err := c.GetRawData()
	if err != nil {
		provide.RenderError(err.Error(), 400, c)
		return
	}

	task := &Task{}
	err = json.Unmarshal(buf, task)
	if err != nil {
		provide.RenderError(err.Error(), 422, c)
		return
	}

	task.AdminID = adminID

	if task.Create() {
		provide.Render(task, 201, c)
	} else {
		obj := map[string]interface{}{}
		obj["errors"] = task.Errors
		provide.Render(obj, 422, c)
	}
}

// fetch task details
func taskDetailsHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	userID := util.AuthorizedSubjectID(c, "user")
	if adminID == nil && userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	task := Find(taskID)
	if task == nil {
		provide.RenderError("task not found", 404, c)
		return
	}

	provide.Render(task, 200, c)
}

// remove a task; admin-only
func deleteTaskHandler(c *gin.Context) {
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

	task := Find(taskID)
	if task == nil {
		provide.RenderError("task not found", 404, c)
		return
	}

	if !task.Delete() {
		obj := map[string]interface{}{}
		obj["errors"] = task.Errors
		provide.Render(obj, 422, c)
		return
	}

	provide.Render(nil, 204, c)
}
