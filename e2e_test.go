//go:build integration

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

package monk

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/monk/database"
	"github.com/tomoncle/monk/repository"
	"github.com/tomoncle/monk/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoAddr string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	container, err := pool.Run("mongo", "6.0", nil)
	if err != nil {
		log.Fatalf("Could not start container: %s", err)
	}

	mongoAddr = fmt.Sprintf("localhost:%s", container.GetPort("27017/tcp"))

	if err := pool.Retry(func() error {
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://"+mongoAddr))
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		return client.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	code := m.Run()

	if err := pool.Purge(container); err != nil {
		log.Fatalf("Could not purge container: %s", err)
	}

	os.Exit(code)
}

func integrationConfig(dbName string) *database.Config {
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.URI = mongoAddr + "/" + dbName
	cfg.ConnectionConfig.EnableReconnect = false
	return cfg
}

func TestRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m, err := ForRoot(ctx, RootOptions{
		Config: integrationConfig("monk_lifecycle"),
		Models: []Feature{Model[PersonTest]()},
	})
	require.NoError(t, err)
	defer m.Close(ctx)
	defer m.Database().Drop(ctx)

	repo, err := InjectRepository[PersonTest](m)
	require.NoError(t, err)

	added, err := repo.Add(ctx, &PersonTest{Name: "Kerry"})
	require.NoError(t, err)
	require.False(t, added.ID.IsZero())

	got, err := repo.GetByID(ctx, added.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Kerry", got.Name)
	assert.Equal(t, added.ID, got.ID)

	edited, err := repo.Edit(ctx, added.ID.Hex(),
		&PersonTest{Name: "Someone Else", Sex: "M", Profession: "Engineer"}, "profession", "sex")
	require.NoError(t, err)
	assert.Equal(t, &PersonTest{ID: added.ID, Name: "Kerry", Sex: "M", Profession: "Engineer"}, edited)

	list, err := repo.List(ctx, types.NewQueryFilter("profession", "Engineer"))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	missing, err := repo.GetByID(ctx, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, "not-a-valid-id")
	assert.ErrorIs(t, err, repository.ErrInvalidIdentifier)

	deleted, err := repo.Delete(ctx, added.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted.DeletedCount)

	deleted, err = repo.Delete(ctx, added.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted.DeletedCount)

	empty, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestForRootAsyncWithIndexes(t *testing.T) {
	ctx := context.Background()
	m, err := ForRootAsync(ctx, AsyncRootOptions{
		Database: UseFactory(func(ctx context.Context) ([]string, error) {
			return []string{mongoAddr + "/monk_async"}, nil
		}),
		Options: UseValue(database.ClientOptions{AppName: "monk-integration"}),
		Config:  integrationConfig(""),
		Models: []Feature{Model[User](database.ModelOptions{
			CollectionName: "accounts",
			Indexes: []mongo.IndexModel{{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			}},
		})},
	})
	require.NoError(t, err)
	defer m.Close(ctx)
	defer m.Database().Drop(ctx)

	assert.Equal(t, "monk_async", m.Database().Name())
	opts, err := m.Resolve(OptionsToken)
	require.NoError(t, err)
	assert.Equal(t, "monk-integration", opts.(database.ClientOptions).AppName)

	svc := NewService[User](m)
	_, err = svc.Save(ctx, &User{Name: "Kerry"})
	require.NoError(t, err)

	_, err = svc.Save(ctx, &User{Name: "Kerry"})
	require.Error(t, err)
	isMongo, kind := database.IsMongoError(err)
	assert.True(t, isMongo)
	assert.Equal(t, database.DuplicateKeyErr, kind)

	health := m.Factory().GetHealthStatus(ctx)
	assert.True(t, health.Healthy)
}

func TestForRootSeeds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "common"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common", "001_person_tests.json"),
		[]byte(`[{"_id": {"$oid": "507f191e810c19729de860ea"}, "name": "Ben", "profession": "{{.ENVIRONMENT}}"}]`), 0o644))

	cfg := integrationConfig("monk_seed")
	cfg.SeedConfig = database.SeedConfig{AutoSeedOnStartup: true, Filepath: dir, Environment: "test"}

	ctx := context.Background()
	m, err := ForRoot(ctx, RootOptions{Config: cfg, Models: []Feature{Model[PersonTest]()}})
	require.NoError(t, err)
	defer m.Close(ctx)
	defer m.Database().Drop(ctx)

	people, err := NewService[PersonTest](m).All(ctx)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Ben", people[0].Name)
	assert.Equal(t, "test", people[0].Profession)

	again, err := ForRoot(ctx, RootOptions{Config: cfg, Models: []Feature{Model[PersonTest]()}})
	require.NoError(t, err)
	defer again.Close(ctx)

	people, err = NewService[PersonTest](again).All(ctx)
	require.NoError(t, err)
	assert.Len(t, people, 1)
}
