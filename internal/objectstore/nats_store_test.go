// Package objectstore_test tests the NATS object store implementation.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/book-expert/storypipe/internal/objectstore"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startJetStream(t *testing.T) nats.JetStreamContext {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()

	natsServer := test.RunServer(&opts)
	t.Cleanup(natsServer.Shutdown)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	return jetstreamContext
}

func TestNatsObjectStore_UploadDownload(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(startJetStream(t), "STORIES")
	require.NoError(t, err)
	assert.Equal(t, "STORIES", store.Bucket())

	ctx := context.Background()
	story := []byte("Maya discovered an old music box in her grandmother's attic.")

	require.NoError(t, store.Upload(ctx, "story.md", story))

	downloaded, err := store.Download(ctx, "story.md")
	require.NoError(t, err)
	assert.Equal(t, story, downloaded)
}

func TestNatsObjectStore_UploadReplaces(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(startJetStream(t), "DOCUMENTS")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "book.txt", []byte("first draft")))
	require.NoError(t, store.Upload(ctx, "book.txt", []byte("second draft")))

	downloaded, err := store.Download(ctx, "book.txt")
	require.NoError(t, err)
	assert.Equal(t, "second draft", string(downloaded))
}

func TestNatsObjectStore_BindsExistingBucket(t *testing.T) {
	t.Parallel()

	jetstreamContext := startJetStream(t)
	ctx := context.Background()

	first, err := objectstore.New(jetstreamContext, "SHARED")
	require.NoError(t, err)
	require.NoError(t, first.Upload(ctx, "key", []byte("value")))

	second, err := objectstore.New(jetstreamContext, "SHARED")
	require.NoError(t, err)

	downloaded, err := second.Download(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", string(downloaded))
}

func TestNatsObjectStore_MissingKey(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(startJetStream(t), "EMPTY")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "absent")
	require.ErrorIs(t, err, objectstore.ErrObjectNotFound)
}
