package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.uber.org/zap"
)

func TestGetWriterReusesPerTopic(t *testing.T) {
	p := NewProducer("localhost:9092", "test-client", zap.NewNop())
	defer p.Close()

	w1 := p.getWriter("portfolio-events")
	w2 := p.getWriter("portfolio-events")
	assert.Same(t, w1, w2)

	other := p.getWriter("other-events")
	assert.NotSame(t, w1, other)
}

func TestConcurrentPublish(t *testing.T) {
	// Nothing listens on this address; every publish fails fast. The point is
	// that concurrent publishes share the topic writer map safely.
	p := NewProducer("127.0.0.1:1", "test-client", zap.NewNop())
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.Publish(ctx, "portfolio-events", Message{
				Key:   "simulation",
				Value: RunCompletedEvent{RunID: i, Kind: "simulation", Status: "completed"},
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.Error(t, err)
	}
}

func TestConcurrentGetWriterSameTopic(t *testing.T) {
	p := NewProducer("localhost:9092", "test-client", zap.NewNop())
	defer p.Close()

	var wg sync.WaitGroup
	writers := make([]interface{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			writers[i] = p.getWriter("portfolio-events")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(writers); i++ {
		assert.Same(t, writers[0], writers[i])
	}
}
