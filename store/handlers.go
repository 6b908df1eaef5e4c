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

package store

import (
	"github.com/gin-gonic/gin"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/common"
	util "github.com/provideplatform/provide-go/common/util"

	"github.com/Sumanth9415/workValidaton/common"
)

// InstallAPI registers the solution artifact API handlers with gin
func InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/artifacts/:id", artifactDetailsHandler)
	r.GET("/api/v1/artifacts/:id/content", artifactContentHandler)
}

// fetch artifact metadata; admins and the owning worker only
func artifactDetailsHandler(c *gin.Context) {
	store := resolveAuthorizedArtifact(c)
	if store == nil {
		return
	}

	provide.Render(store, 200, c)
}

// download the artifact content; admins and the owning worker only
func artifactContentHandler(c *gin.Context) {
	store := resolveAuthorizedArtifact(c)
	if store == nil {
		return
	}

	content, err := store.Content()
	if err != nil {
		common.Log.Warningf("failed to read artifact content %s; %s", store.ID, err.Error())
		provide.RenderError("failed to read artifact content", 500, c)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+*store.Name)
	c.Data(200, "application/octet-stream", content)
}

// resolveAuthorizedArtifact loads the requested artifact and enforces access;
// renders the error response and returns nil when access is denied
func resolveAuthorizedArtifact(c *gin.Context) *Store {
	adminID := util.AuthorizedSubjectID(c, "admin")
	userID := util.AuthorizedSubjectID(c, "user")
	if adminID == nil && userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return nil
	}

	storeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return nil
	}

	store := Find(storeID)
	if store == nil {
		provide.RenderError("artifact not found", 404, c)
		return nil
	}

	if adminID == nil && (store.WorkerID == nil || userID.String() != store.WorkerID.String()) {
		provide.RenderError("artifact not found", 404, c)
		return nil
	}

	return store
}
