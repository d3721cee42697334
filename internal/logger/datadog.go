package logger

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/pkg/errors"
)

const (
	defaultDataDogTimeout = 5 * time.Second
	defaultDataDogBuffer  = 1024
	dataDogSource         = "zerolog"
)

// ErrDataDogAPIKeyIsEmpty is returned if datadog shipping is enabled without an API key.
var ErrDataDogAPIKeyIsEmpty = errors.New("config Log.DataDog.APIKey can not be empty")

// LogSubmitter sends a batch of log items to datadog.
type LogSubmitter interface {
	Submit(ctx context.Context, items []datadogV2.HTTPLogItem) error
}

// logsAPISubmitter submits through the datadog v2 logs API.
type logsAPISubmitter struct {
	api    *datadogV2.LogsApi
	apiKey string
	site   string
}

// Submit implements LogSubmitter.
func (s logsAPISubmitter) Submit(ctx context.Context, items []datadogV2.HTTPLogItem) error {
	ctx = context.WithValue(ctx, datadog.ContextAPIKeys, map[string]datadog.APIKey{
		"apiKeyAuth": {Key: s.apiKey},
	})

	if s.site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{"site": s.site})
	}

	_, _, err := s.api.SubmitLog(ctx, items, *datadogV2.NewSubmitLogOptionalParameters())

	return errors.Wrap(err, "datadog submit log")
}

// DataDogWriter is an io.Writer queueing zerolog lines for datadog.
// Lines are dropped when the queue is full so logging never blocks a request.
type DataDogWriter struct {
	submitter LogSubmitter
	timeout   time.Duration
	service   string
	tags      string
	hostname  string

	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

// NewDataDogWriter creates a writer using the datadog logs API.
func NewDataDogWriter(cfg Log) (*DataDogWriter, error) {
	if cfg.DataDog.APIKey == "" {
		return nil, ErrDataDogAPIKeyIsEmpty
	}

	api := datadogV2.NewLogsApi(datadog.NewAPIClient(datadog.NewConfiguration()))

	return NewDataDogWriterWithSubmitter(cfg, logsAPISubmitter{
		api:    api,
		apiKey: cfg.DataDog.APIKey,
		site:   cfg.DataDog.Site,
	}), nil
}

// NewDataDogWriterWithSubmitter creates a writer shipping through the given submitter.
func NewDataDogWriterWithSubmitter(cfg Log, submitter LogSubmitter) *DataDogWriter {
	service := cfg.DataDog.ServiceName
	if service == "" {
		service = cfg.ServiceName
	}

	timeout := cfg.DataDog.Timeout
	if timeout == 0 {
		timeout = defaultDataDogTimeout
	}

	buffer := cfg.DataDog.Buffer
	if buffer <= 0 {
		buffer = defaultDataDogBuffer
	}

	hostname, _ := os.Hostname() //nolint:errcheck // empty hostname is fine

	w := &DataDogWriter{
		submitter: submitter,
		timeout:   timeout,
		service:   service,
		tags:      "env:" + cfg.LogEnv + ",app:" + cfg.AppName,
		hostname:  hostname,
		queue:     make(chan []byte, buffer),
		done:      make(chan struct{}),
	}

	go w.run()

	return w
}

// Write implements io.Writer.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	select {
	case w.queue <- line:
	default:
	}

	return len(p), nil
}

// Close flushes queued lines and stops the sender.
func (w *DataDogWriter) Close() error {
	w.once.Do(func() {
		close(w.queue)
	})

	<-w.done

	return nil
}

func (w *DataDogWriter) run() {
	defer close(w.done)

	for line := range w.queue {
		item := datadogV2.HTTPLogItem{
			Ddsource: datadog.PtrString(dataDogSource),
			Ddtags:   datadog.PtrString(w.tags),
			Hostname: datadog.PtrString(w.hostname),
			Message:  strings.TrimRight(string(line), "\n"),
			Service:  datadog.PtrString(w.service),
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.submitter.Submit(ctx, []datadogV2.HTTPLogItem{item}); err != nil {
			ErrorHandler(err)
		}

		cancel()
	}
}
