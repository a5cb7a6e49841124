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
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// NewClientOptions translates cfg into driver options for the given
// connection string. Monitors are attached by the manager.
func NewClientOptions(cfg *ConnectionConfig, uri string) (*options.ClientOptions, error) {
	o := cfg.Options
	opts := options.Client().ApplyURI(uri)

	if o.AppName != "" {
		opts.SetAppName(o.AppName)
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(o.MaxConnIdleTime)
	}
	if o.ConnectTimeout > 0 {
		opts.SetConnectTimeout(o.ConnectTimeout)
	}
	if o.SocketTimeout > 0 {
		opts.SetSocketTimeout(o.SocketTimeout)
	}
	if o.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(o.ServerSelectionTimeout)
	}
	if o.HeartbeatInterval > 0 {
		opts.SetHeartbeatInterval(o.HeartbeatInterval)
	}
	if o.LocalThreshold > 0 {
		opts.SetLocalThreshold(o.LocalThreshold)
	}
	if o.ReplicaSet != "" {
		opts.SetReplicaSet(o.ReplicaSet)
	}
	if o.Direct {
		opts.SetDirect(true)
	}
	if o.DisableRetryWrites {
		opts.SetRetryWrites(false)
	}
	if len(o.Compressors) > 0 {
		opts.SetCompressors(o.Compressors)
	}

	switch {
	case cfg.Username != "":
		opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: o.AuthSource,
		})
	case o.AuthSource != "" && opts.Auth != nil:
		opts.Auth.AuthSource = o.AuthSource
	}

	wc, err := writeConcern(o)
	if err != nil {
		return nil, err
	}
	if wc != nil {
		opts.SetWriteConcern(wc)
	}

	if o.ReadPreference != "" {
		mode, err := readpref.ModeFromString(o.ReadPreference)
		if err != nil {
			return nil, fmt.Errorf("invalid read preference %q: %w", o.ReadPreference, err)
		}
		rp, err := readpref.New(mode)
		if err != nil {
			return nil, fmt.Errorf("invalid read preference %q: %w", o.ReadPreference, err)
		}
		opts.SetReadPreference(rp)
	}
	if o.ReadConcern != "" {
		opts.SetReadConcern(readconcern.New(readconcern.Level(o.ReadConcern)))
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client options: %w", err)
	}
	return opts, nil
}

func writeConcern(o ClientOptions) (*writeconcern.WriteConcern, error) {
	var wcOpts []writeconcern.Option
	switch w := strings.TrimSpace(o.W); {
	case w == "":
	case strings.EqualFold(w, "majority"):
		wcOpts = append(wcOpts, writeconcern.WMajority())
	default:
		if n, err := strconv.Atoi(w); err == nil {
			if n < 0 {
				return nil, fmt.Errorf("invalid write concern w=%d", n)
			}
			wcOpts = append(wcOpts, writeconcern.W(n))
		} else {
			wcOpts = append(wcOpts, writeconcern.WTagSet(w))
		}
	}
	if o.WTimeout > 0 {
		wcOpts = append(wcOpts, writeconcern.WTimeout(o.WTimeout))
	}
	if o.Journal {
		wcOpts = append(wcOpts, writeconcern.J(true))
	}
	if len(wcOpts) == 0 {
		return nil, nil
	}
	return writeconcern.New(wcOpts...), nil
}
