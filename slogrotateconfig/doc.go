// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package slogrotateconfig loads slogrotate sink configuration from TOML or
// JSON files and keeps a Registry in sync with a file as it changes.
//
// A file lists sinks under the "sinks" key. Keys left out of an entry keep
// the value from slogrotate.DefaultConfiguration:
//
//	[[sinks]]
//	name = "api"
//	log_level = "information"
//	filename = "/var/log/api/api.log"
//	maximum_log_file_size_kb = 10240
//	purge_after_days = 14
package slogrotateconfig
