package logger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/logger"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	items []datadogV2.HTTPLogItem
}

func (f *fakeSubmitter) Submit(_ context.Context, items []datadogV2.HTTPLogItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, items...)

	return nil
}

func TestDataDogWriter(t *testing.T) {
	sub := &fakeSubmitter{}
	w := logger.NewDataDogWriterWithSubmitter(logger.Log{
		AppName:     "storefront-admin",
		ServiceName: "storefront-admin",
		LogEnv:      "test",
	}, sub)

	line := []byte(`{"level":"info","type":"audit","action":"LOGIN"}` + "\n")

	n, err := w.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	require.NoError(t, w.Close())

	require.Len(t, sub.items, 1)
	assert.Equal(t, `{"level":"info","type":"audit","action":"LOGIN"}`, sub.items[0].Message)
	assert.Equal(t, "storefront-admin", sub.items[0].GetService())
	assert.Equal(t, "env:test,app:storefront-admin", sub.items[0].GetDdtags())
}

func TestNewDataDogWriterRequiresAPIKey(t *testing.T) {
	_, err := logger.NewDataDogWriter(logger.Log{DataDog: logger.DataDog{Enabled: true}})
	require.ErrorIs(t, err, logger.ErrDataDogAPIKeyIsEmpty)
}
