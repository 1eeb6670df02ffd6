package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/metrics"
)

// Producer 是 KafkaCollector 依赖的最小发送接口，*kgo.Client 满足该接口。
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaConfig Kafka 采集器配置
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`

	BatchSize     int           `koanf:"batch_size"`     // 建议 100-1000
	FlushInterval time.Duration `koanf:"flush_interval"` // 建议 1-5 秒

	ClientID    string `koanf:"client_id"`
	Compression string `koanf:"compression" validate:"omitempty,oneof=gzip snappy lz4 zstd"`
}

// KafkaCollector 缓冲事件并按批发送到 Kafka，上报接口只写缓冲，不阻塞。
type KafkaCollector struct {
	producer      Producer
	topic         string
	batchSize     int
	flushInterval time.Duration
	log           *zerolog.Logger

	mu        sync.Mutex
	buffer    []Event
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
	flushCh   chan struct{}
}

// NewKafkaCollector 创建 franz-go 客户端并启动后台刷新。
func NewKafkaCollector(cfg KafkaConfig) (*KafkaCollector, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "topcare-feedback"
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.LeaderAck()),
		kgo.DisableIdempotentWrite(),
		kgo.RecordRetries(3),
	}
	switch cfg.Compression {
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return NewKafkaCollectorWithProducer(client, cfg), nil
}

// NewKafkaCollectorWithProducer 使用已有 Producer。
func NewKafkaCollectorWithProducer(p Producer, cfg KafkaConfig) *KafkaCollector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	c := &KafkaCollector{
		producer:      p,
		topic:         cfg.Topic,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		log:           logging.Component("feedback.kafka"),
		buffer:        make([]Event, 0, cfg.BatchSize),
		stopCh:        make(chan struct{}),
		flushCh:       make(chan struct{}, 1),
	}
	c.wg.Add(1)
	go c.flushLoop()
	return c
}

func (c *KafkaCollector) RecordView(_ context.Context, userID, itemID string) error {
	return c.buffered(NewEvent(EventView, userID, itemID))
}

func (c *KafkaCollector) RecordClick(_ context.Context, userID, itemID string) error {
	return c.buffered(NewEvent(EventClick, userID, itemID))
}

func (c *KafkaCollector) buffered(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.buffer = append(c.buffer, ev)
	if len(c.buffer) >= c.batchSize {
		select {
		case c.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

func (c *KafkaCollector) flushLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.flushCh:
			c.flush()
		case <-c.stopCh:
			return
		}
	}
}

// flush 取出缓冲并异步发送。
func (c *KafkaCollector) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	events := c.buffer
	c.buffer = make([]Event, 0, c.batchSize)
	c.mu.Unlock()

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			c.log.Warn().Err(err).Str("item_id", ev.ItemID).Msg("encode feedback event")
			continue
		}
		kind := string(ev.Type)
		record := &kgo.Record{
			Topic: c.topic,
			Key:   []byte(ev.UserID), // 同一用户的事件落同一分区，保证有序
			Value: data,
		}
		c.producer.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
			metrics.RecordTelemetry(kind, err)
			if err != nil {
				c.log.Warn().Err(err).Str("event", kind).Msg("produce feedback event")
			}
		})
	}
}

// Close 停止刷新循环，发送剩余缓冲并等待投递完成。
func (c *KafkaCollector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.stopCh)
		c.wg.Wait()
		c.flush()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = c.producer.Flush(ctx)
		c.producer.Close()
	})
	return err
}
