// Package kafka は予約イベントを Kafka のトピックへ発行する
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// Publisher は SyncProducer で予約イベントを送る
// キーは座席・日付で、同じ座席日のイベントは同じパーティションに順序どおり並ぶ
type Publisher struct {
	producer    sarama.SyncProducer
	topicPrefix string
}

// NewConfig は発行者向けの sarama 設定を返す
func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	return config
}

// Dial はブローカーに接続した Publisher を返す
func Dial(brokers []string, topicPrefix string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("Kafkaプロデューサー作成に失敗: %w", err)
	}
	logger.Info("Kafkaに接続しました", zap.Strings("brokers", brokers))
	return NewPublisher(producer, topicPrefix), nil
}

func NewPublisher(producer sarama.SyncProducer, topicPrefix string) *Publisher {
	return &Publisher{producer: producer, topicPrefix: topicPrefix}
}

func (p *Publisher) Name() string { return "kafka" }

// Topic はイベント種別に対応するトピック名を返す（例: booking-committed）
func (p *Publisher) Topic(t booking.EventType) string {
	suffix := strings.TrimPrefix(string(t), "booking.")
	if suffix == "" {
		suffix = "events"
	}
	return p.topicPrefix + "-" + suffix
}

// Publish はイベントを送信し、ブローカーの応答を待つ
func (p *Publisher) Publish(ctx context.Context, ev booking.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.Topic(ev.Type),
		Key:   sarama.StringEncoder(ev.SeatID + ":" + ev.Date.String()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(ev.Type)},
		},
		Timestamp: ev.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("Kafkaへの発行に失敗: %w", err)
	}
	logger.FromContext(ctx).Debug("予約イベントを発行しました",
		zap.String("topic", msg.Topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
		zap.String("booking_id", ev.BookingID),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
