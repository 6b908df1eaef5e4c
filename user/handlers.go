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

package user

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/common"
	util "github.com/provideplatform/provide-go/common/util"

	"github.com/Sumanth9415/workValidaton/common"
)

// InstallAPI registers the user profile, redemption and leaderboard API handlers with gin
func InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/users/me", profileHandler)
	r.GET("/api/v1/users/:id", userDetailsHandler)
	r.PUT("/api/v1/users/redeem", redeemPointsHandler)
	r.GET("/api/v1/leaderboard", leaderboardHandler)
}

// fetch the authenticated subject's profile
func profileHandler(c *gin.Context) {
	userID := util.AuthorizedSubjectID(c, "user")
	if userID == nil {
		userID = util.AuthorizedSubjectID(c, "admin")
	}
	if userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	usr := Find(*userID)
	if usr == nil {
		provide.RenderError("user not found", 404, c)
		return
	}

	provide.Render(usr, 200, c)
}

// fetch a user's profile; admins and the subject only
func userDetailsHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	subjectID := util.AuthorizedSubjectID(c, "user")
	if adminID == nil && subjectID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	userID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		provide.RenderError("bad request", 400, c)
		return
	}

	if adminID == nil && subjectID.String() != userID.String() {
		provide.RenderError("user not found", 404, c)
		return
	}

	usr := Find(userID)
	if usr == nil {
		provide.RenderError("user not found", 404, c)
		return
	}

	provide.Render(usr, 200, c)
}

// redeem points from the authenticated worker's balance
func redeemPointsHandler(c *gin.Context) {
	userID := util.AuthorizedSubjectID(c, "user")
	if userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	buf, err := c.GetRawData()
	if err != nil {
		provide.RenderError(err.Error(), 400, c)
		return
	}

	params := &struct {
		Points *int64 `json:"points"`
	}{}
	err = json.Unmarshal(buf, &params)
	if err != nil {
		provide.RenderError(err.Error(), 422, c)
		return
	}
	if params.Points == nil {
		provide.RenderError("points required", 422, c)
		return
	}

	usr, err := RedeemPoints(*userID, *params.Points)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			provide.RenderError(err.Error(), 404, c)
		case errors.Is(err, ErrInvalidRedemption), errors.Is(err, ErrInsufficientPoints):
			provide.RenderError(err.Error(), 400, c)
		default:
			common.Log.Warningf("failed to redeem points for worker %s; %s", userID, err.Error())
			provide.RenderError("internal persistence error", 500, c)
		}
		return
	}

	provide.Render(usr, 200, c)
}

// render the leaderboard from cache, rebuilding it on miss
func leaderboardHandler(c *gin.Context) {
	adminID := util.AuthorizedSubjectID(c, "admin")
	userID := util.AuthorizedSubjectID(c, "user")
	if adminID == nil && userID == nil {
		provide.RenderError("unauthorized", 401, c)
		return
	}

	raw, err := CachedLeaderboard()
	if err != nil {
		common.Log.Warningf("failed to resolve leaderboard; %s", err.Error())
		provide.RenderError("internal persistence error", 500, c)
		return
	}

	c.Data(200, "application/json; charset=utf-8", raw)
}
