/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package main

import (
	"net/http"

	"github.com/wso2/restkit/internal/system/database/provider"
	"github.com/wso2/restkit/internal/system/log"
	"github.com/wso2/restkit/internal/widget"
)

// Package-level module references for cleanup during shutdown
var widgetModule *widget.Resources

// registerServices registers every resource module with the provided HTTP
// multiplexer.
func registerServices(mux *http.ServeMux, dbClient provider.DBClientInterface) {
	logger := log.GetLogger()

	widgetModule = widget.Initialize(mux, dbClient)
	logger.Info("Widget module initialized")

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
}
