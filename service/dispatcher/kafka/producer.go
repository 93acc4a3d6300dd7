package kafka

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"

	"RZProject/logger"
	"RZProject/module/sync/service"
	"RZProject/tools/errs"
	"RZProject/tools/safe"
)

// Config Kafka 生产端配置
type Config struct {
	Brokers []string
	Topic   string
}

// Producer 异步生产者：同步事件镜像到分析管道用的 topic。
// 按 userId 作 key 分区，同一用户的事件落同一分区保持相对顺序。
type Producer struct {
	ap    sarama.AsyncProducer
	topic string
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errs.New("kafka brokers and topic required")
	}
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Return.Errors = true
	sc.Producer.Compression = sarama.CompressionSnappy

	ap, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, errs.WrapMsg(err, "new kafka producer", "brokers", cfg.Brokers)
	}
	p := &Producer{ap: ap, topic: cfg.Topic}

	// 排空错误通道，失败只记日志（尽力而为语义）
	safe.SafeGo(func() {
		for perr := range ap.Errors() {
			logger.Warnf("[kafka] produce failed topic=%s err=%v", p.topic, perr.Err)
		}
	})
	return p, nil
}

var _ service.EventPublisher = (*Producer)(nil)

func (p *Producer) Name() string { return "kafka" }

func (p *Producer) Publish(_ context.Context, ev *service.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errs.Wrap(err)
	}
	p.ap.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.UserID),
		Value: sarama.ByteEncoder(payload),
	}
	return nil
}

func (p *Producer) Close() error {
	return p.ap.Close()
}
