/*
 * Copyright 2025 tomoncle.
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

package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func TestNewClientOptions(t *testing.T) {
	cfg := &ConnectionConfig{
		Username: "monk",
		Password: "secret",
		Options: ClientOptions{
			AppName:                "monk-test",
			MaxPoolSize:            20,
			MinPoolSize:            2,
			ConnectTimeout:         3 * time.Second,
			ServerSelectionTimeout: 4 * time.Second,
			ReplicaSet:             "rs0",
			AuthSource:             "admin",
			W:                      "majority",
			Journal:                true,
			ReadPreference:         "secondaryPreferred",
			ReadConcern:            "majority",
			DisableRetryWrites:     true,
		},
	}

	opts, err := NewClientOptions(cfg, "mongodb://localhost:27017/app")
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:27017"}, opts.Hosts)
	assert.Equal(t, "monk-test", *opts.AppName)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
	assert.Equal(t, uint64(2), *opts.MinPoolSize)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	assert.Equal(t, 4*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, "rs0", *opts.ReplicaSet)
	assert.False(t, *opts.RetryWrites)
	require.NotNil(t, opts.Auth)
	assert.Equal(t, "monk", opts.Auth.Username)
	assert.Equal(t, "admin", opts.Auth.AuthSource)
	assert.NotNil(t, opts.WriteConcern)
	assert.NotNil(t, opts.ReadConcern)
	require.NotNil(t, opts.ReadPreference)
	assert.Equal(t, readpref.SecondaryPreferredMode, opts.ReadPreference.Mode())
}

func TestNewClientOptionsDefaults(t *testing.T) {
	opts, err := NewClientOptions(&ConnectionConfig{}, "mongodb://localhost")
	require.NoError(t, err)

	assert.Nil(t, opts.Auth)
	assert.Nil(t, opts.MaxPoolSize)
	assert.Nil(t, opts.WriteConcern)
	assert.Nil(t, opts.ReadPreference)
}

func TestNewClientOptionsAuthSourceFromURI(t *testing.T) {
	cfg := &ConnectionConfig{Options: ClientOptions{AuthSource: "admin"}}

	opts, err := NewClientOptions(cfg, "mongodb://u:p@localhost/app")
	require.NoError(t, err)
	require.NotNil(t, opts.Auth)
	assert.Equal(t, "u", opts.Auth.Username)
	assert.Equal(t, "admin", opts.Auth.AuthSource)
}

func TestNewClientOptionsInvalid(t *testing.T) {
	cases := []struct {
		desc string
		opts ClientOptions
	}{
		{desc: "unknown read preference", opts: ClientOptions{ReadPreference: "sideways"}},
		{desc: "negative write concern", opts: ClientOptions{W: "-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := NewClientOptions(&ConnectionConfig{Options: tc.opts}, "mongodb://localhost")
			assert.Error(t, err)
		})
	}
}

func TestWriteConcern(t *testing.T) {
	wc, err := writeConcern(ClientOptions{})
	require.NoError(t, err)
	assert.Nil(t, wc)

	for _, w := range []string{"majority", "2", "dc-east"} {
		wc, err := writeConcern(ClientOptions{W: w, WTimeout: time.Second})
		require.NoError(t, err, w)
		assert.NotNil(t, wc, w)
	}
}
