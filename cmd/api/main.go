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

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redisutil "github.com/kthomas/go-redisutil"

	"github.com/Sumanth9415/workValidaton/common"
	"github.com/Sumanth9415/workValidaton/store"
	"github.com/Sumanth9415/workValidaton/submission"
	"github.com/Sumanth9415/workValidaton/task"
	"github.com/Sumanth9415/workValidaton/user"
)

const defaultListenAddr = "0.0.0.0:8080"
const shutdownGracePeriod = time.Second * 10

func main() {
	common.Log.Debugf("starting workvalidation API...")

	redisutil.RequireRedis()

	r := gin.New()
	r.Use(gin.Recovery())

	task.InstallAPI(r)
	submission.InstallAPI(r)
	user.InstallAPI(r)
	store.InstallAPI(r)

	r.GET("/status", statusHandler)

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: r,
	}

	go func() {
		common.Log.Infof("workvalidation API listening on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.Log.Panicf("failed to serve workvalidation API; %s", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.Log.Debugf("shutting down workvalidation API...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.Log.Warningf("failed to gracefully shut down workvalidation API; %s", err.Error())
	}
}

func statusHandler(c *gin.Context) {
	c.JSON(200, map[string]interface{}{
		"status": "ok",
	})
}
