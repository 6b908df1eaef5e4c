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
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	dbconf "github.com/kthomas/go-db-config"
	redisutil "github.com/kthomas/go-redisutil"
	uuid "github.com/kthomas/go.uuid"
	provide "github.com/provideplatform/provide-go/api"

	"github.com/Sumanth9415/workValidaton/common"
)

// UserRoleWorker and UserRoleAdmin are the supported account roles
const UserRoleWorker = "worker"
const UserRoleAdmin = "admin"

// DefaultLeaderboardSize limits the number of workers rendered on the leaderboard
const DefaultLeaderboardSize = 25

const leaderboardCacheKey = "workvalidation.leaderboard"
const leaderboardCacheTTL = time.Minute * 5

// ErrUserNotFound indicates the requested account does not exist
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidRedemption indicates a non-positive redemption amount
var ErrInvalidRedemption = errors.New("redemption amount must be at least 1 point")

// ErrInsufficientPoints indicates the worker's balance cannot cover the redemption
var ErrInsufficientPoints = errors.New("insufficient points")

// User model; the submission lifecycle reads its identifier and, on
// acceptance, credits its point balance
type User struct {
	provide.Model

	Username *string `sql:"not null" json:"username"`
	Email    *string `sql:"not null" json:"email"`
	Role     *string `sql:"not null;default:'worker'" json:"role"`
	Points   int64   `sql:"not null;default:0" json:"points"`
}

// Find loads the user for the given identifier; returns nil if absent
func Find(userID uuid.UUID) *User {
	db := dbconf.DatabaseConnection()
	usr := &User{}
	db.Where("id = ?", userID).Find(&usr)
	if usr == nil || usr.ID == uuid.Nil {
		return nil
	}
	return usr
}

// Create a user
func (u *User) Create() bool {
	if !u.validate() {
		return false
	}

	db := dbconf.DatabaseConnection()

	if db.NewRecord(u) {
		result := db.Create(&u)
		rowsAffected := result.RowsAffected
		errors := result.GetErrors()
		if len(errors) > 0 {
			for _, err := range errors {
				u.Errors = append(u.Errors, &provide.Error{
					Message: common.StringOrNil(err.Error()),
				})
			}
		}
		if !db.NewRecord(u) {
			success := rowsAffected > 0
			if success {
				common.Log.Debugf("initialized %s user: %s", *u.Role, u.ID)
			}

			return success
		}
	}

	return false
}

// validate the user params
func (u *User) validate() bool {
	u.Errors = make([]*provide.Error, 0)

	if u.Username == nil {
		u.Errors = append(u.Errors, &provide.Error{
			Message: common.StringOrNil("username required"),
		})
	}

	if u.Email == nil {
		u.Errors = append(u.Errors, &provide.Error{
			Message: common.StringOrNil("email required"),
		})
	}

	if u.Role == nil {
		u.Role = common.StringOrNil(UserRoleWorker)
	} else if *u.Role != UserRoleWorker && *u.Role != UserRoleAdmin {
		u.Errors = append(u.Errors, &provide.Error{
			Message: common.StringOrNil("user role must be worker or admin"),
		})
	}

	return len(u.Errors) == 0
}

// CreditPoints increases the worker's point balance within the caller's
// transaction; the status write that triggers a credit and the credit itself
// must commit or roll back together
func CreditPoints(tx *gorm.DB, userID uuid.UUID, points int64) error {
	result := tx.Model(&User{}).Where("id = ?", userID).UpdateColumn("points", gorm.Expr("points + ?", points))
	errors := result.GetErrors()
	if len(errors) > 0 {
		return errors[0]
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to credit %d points; worker not found: %s", points, userID)
	}

	common.Log.Debugf("credited %d points to worker: %s", points, userID)
	return nil
}

// RedeemPoints debits the worker's point balance; the balance guard rides in
// the WHERE clause so concurrent redemptions cannot overdraw
func RedeemPoints(userID uuid.UUID, points int64) (*User, error) {
	if points < 1 {
		return nil, ErrInvalidRedemption
	}

	db := dbconf.DatabaseConnection()
	result := db.Model(&User{}).Where("id = ? AND points >= ?", userID, points).UpdateColumn("points", gorm.Expr("points - ?", points))
	if errs := result.GetErrors(); len(errs) > 0 {
		return nil, errs[0]
	}
	if result.RowsAffected == 0 {
		if Find(userID) == nil {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientPoints
	}

	common.Log.Debugf("redeemed %d points for worker: %s", points, userID)

	if _, err := RefreshLeaderboardCache(); err != nil {
		common.Log.Warningf("failed to refresh leaderboard cache after redemption; %s", err.Error())
	}

	return Find(userID), nil
}

// Leaderboard returns the top workers ordered by point balance
func Leaderboard(limit int) []*User {
	db := dbconf.DatabaseConnection()

	var workers []*User
	db.Where("role = ?", UserRoleWorker).Order("points DESC").Limit(limit).Find(&workers)
	return workers
}

// CachedLeaderboard returns the serialized leaderboard, rebuilding the cache on miss
func CachedLeaderboard() ([]byte, error) {
	cached, err := redisutil.Get(leaderboardCacheKey)
	if err == nil && cached != nil {
		return []byte(*cached), nil
	}

	return RefreshLeaderboardCache()
}

// RefreshLeaderboardCache recomputes the leaderboard and replaces the cached rendering
func RefreshLeaderboardCache() ([]byte, error) {
	workers := Leaderboard(DefaultLeaderboardSize)

	raw, err := json.Marshal(workers)
	if err != nil {
		return nil, err
	}

	ttl := leaderboardCacheTTL
	err = redisutil.Set(leaderboardCacheKey, string(raw), &ttl)
	if err != nil {
		common.Log.Warningf("failed to cache leaderboard; %s", err.Error())
	}

	return raw, nil
}
