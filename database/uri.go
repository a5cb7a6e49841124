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
	"errors"
	"net/url"
	"strings"
)

// DefaultDatabaseName is used when neither the config nor the connection
// string names a database.
const DefaultDatabaseName = "test"

var ErrNoConnectionString = errors.New("no connection string or hosts configured")

// ResolveURI builds the connection string for cfg and picks the database name.
// Strings without a scheme get "mongodb://". The database name comes from
// cfg.Database, then the connection string path, then DefaultDatabaseName.
func ResolveURI(cfg *ConnectionConfig) (uri string, dbName string, err error) {
	if cfg == nil {
		return "", "", ErrNoConnectionString
	}
	switch {
	case strings.TrimSpace(cfg.URI) != "":
		uri = withScheme(strings.TrimSpace(cfg.URI))
	case len(cfg.Hosts) > 0:
		uri = joinHosts(cfg.Hosts)
	default:
		return "", "", ErrNoConnectionString
	}
	if uri == "" {
		return "", "", ErrNoConnectionString
	}

	dbName = cfg.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	if dbName == "" {
		dbName = DefaultDatabaseName
	}
	return withTLSParams(uri, cfg.Options), dbName, nil
}

func withScheme(s string) string {
	if strings.Contains(s, "://") {
		return s
	}
	return "mongodb://" + s
}

// joinHosts merges "host:port[/db][?query]" seeds into a single connection
// string. The first entry carrying a database or query wins for that part.
func joinHosts(entries []string) string {
	hosts := make([]string, 0, len(entries))
	var db, query string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if i := strings.Index(entry, "://"); i >= 0 {
			entry = entry[i+3:]
		}
		if i := strings.Index(entry, "?"); i >= 0 {
			if query == "" {
				query = entry[i+1:]
			}
			entry = entry[:i]
		}
		if i := strings.Index(entry, "/"); i >= 0 {
			if db == "" {
				db = entry[i+1:]
			}
			entry = entry[:i]
		}
		if entry != "" {
			hosts = append(hosts, entry)
		}
	}
	if len(hosts) == 0 {
		return ""
	}

	uri := "mongodb://" + strings.Join(hosts, ",") + "/" + db
	if query != "" {
		uri += "?" + query
	}
	return uri
}

func databaseFromURI(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	i := strings.Index(rest, "/")
	if i < 0 {
		return ""
	}
	path := rest[i+1:]
	if j := strings.Index(path, "?"); j >= 0 {
		path = path[:j]
	}
	name, err := url.PathUnescape(path)
	if err != nil {
		return path
	}
	return name
}

// withTLSParams appends the TLS settings as connection string options so the
// driver loads certificate files itself.
func withTLSParams(uri string, o ClientOptions) string {
	params := url.Values{}
	if o.TLS {
		params.Set("tls", "true")
	}
	if o.TLSInsecure {
		params.Set("tlsInsecure", "true")
	}
	if o.TLSCAFile != "" {
		params.Set("tlsCAFile", o.TLSCAFile)
	}
	if o.TLSCertificateKeyFile != "" {
		params.Set("tlsCertificateKeyFile", o.TLSCertificateKeyFile)
	}
	if o.TLSCertificateKeyFilePassword != "" {
		params.Set("tlsCertificateKeyFilePassword", o.TLSCertificateKeyFilePassword)
	}
	if len(params) == 0 {
		return uri
	}

	if strings.Contains(uri, "?") {
		return uri + "&" + params.Encode()
	}
	rest := uri[strings.Index(uri, "://")+3:]
	if !strings.Contains(rest, "/") {
		uri += "/"
	}
	return uri + "?" + params.Encode()
}
