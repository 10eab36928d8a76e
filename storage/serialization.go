// Copyright 2025 Poiesic Systems
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


package storage

import (
	"github.com/poiesic/candidex/core"
)

// MarshalProfile serializes a CandidateProfile to bytes.
func MarshalProfile(profile *core.CandidateProfile) []byte {
	buf := make([]byte, core.ProfileMUS.Size(*profile))
	core.ProfileMUS.Marshal(*profile, buf)
	return buf
}

// UnmarshalProfile deserializes a CandidateProfile from bytes.
func UnmarshalProfile(data []byte) (*core.CandidateProfile, error) {
	profile, _, err := core.ProfileMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// MarshalIndexVersion serializes an IndexVersion to bytes.
func MarshalIndexVersion(version *core.IndexVersion) []byte {
	buf := make([]byte, core.IndexVersionMUS.Size(*version))
	core.IndexVersionMUS.Marshal(*version, buf)
	return buf
}

// UnmarshalIndexVersion deserializes an IndexVersion from bytes.
func UnmarshalIndexVersion(data []byte) (*core.IndexVersion, error) {
	version, _, err := core.IndexVersionMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &version, nil
}
