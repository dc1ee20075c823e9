// Package ddb provides a checkpoint store backed by a DynamoDB table.
// Writes are buffered in memory and flushed to the table at a fixed
// interval; call Shutdown to flush what is still in flight.
package ddb

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxSaveRetries bounds how often a throttled write is attempted again
// before the flush gives up.
const maxSaveRetries = 3

// Option is used to override defaults when creating a new Store
type Option func(*Store)

// WithMaxInterval sets the flush interval
func WithMaxInterval(maxInterval time.Duration) Option {
	return func(s *Store) {
		s.maxInterval = maxInterval
	}
}

// WithDynamoClient sets the dynamoDb client
func WithDynamoClient(svc *dynamodb.Client) Option {
	return func(s *Store) {
		s.client = svc
	}
}

// WithRetryer sets the retryer
func WithRetryer(r Retryer) Option {
	return func(s *Store) {
		s.retryer = r
	}
}

// New returns a checkpoint store that uses DynamoDB for underlying storage
func New(appName, tableName string, opts ...Option) (*Store, error) {
	s := &Store{
		tableName:   tableName,
		appName:     appName,
		maxInterval: time.Duration(1 * time.Minute),
		done:        make(chan struct{}),
		mu:          &sync.Mutex{},
		checkpoints: map[key]string{},
		retryer:     &DefaultRetryer{},
	}

	for _, opt := range opts {
		opt(s)
	}

	// default client
	if s.client == nil {
		cfg, err := config.LoadDefaultConfig(context.TODO())
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %v", err)
		}
		s.client = dynamodb.NewFromConfig(cfg)
	}

	go s.loop()

	return s, nil
}

// Store buffers checkpoints and persists them in a DynamoDB table
type Store struct {
	tableName   string
	appName     string
	client      *dynamodb.Client
	maxInterval time.Duration
	mu          *sync.Mutex // protects the checkpoints
	checkpoints map[key]string
	done        chan struct{}
	retryer     Retryer
}

type key struct {
	streamName string
	shardID    string
}

type item struct {
	Namespace      string `json:"namespace"`
	ShardID        string `json:"shard_id"`
	SequenceNumber string `json:"sequence_number"`
}

// GetCheckpoint determines if a checkpoint for a particular Shard exists.
// Typically used to determine whether processing of the shard should start
// from the horizon or after the stored sequence number (if checkpoint exists).
func (s *Store) GetCheckpoint(ctx context.Context, streamName, shardID string) (string, error) {
	params := &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]ddbtypes.AttributeValue{
			"namespace": &ddbtypes.AttributeValueMemberS{
				Value: s.namespace(streamName),
			},
			"shard_id": &ddbtypes.AttributeValueMemberS{
				Value: shardID,
			},
		},
	}

	var resp *dynamodb.GetItemOutput
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = s.client.GetItem(ctx, params)
		if err == nil {
			break
		}
		if !s.retryer.ShouldRetry(err) || attempt >= maxSaveRetries {
			return "", err
		}
	}

	var i item
	if err := attributevalue.UnmarshalMap(resp.Item, &i); err != nil {
		return "", err
	}
	return i.SequenceNumber, nil
}

// SetCheckpoint buffers a checkpoint for a shard (e.g. sequence number of
// last record processed by application). The value reaches the table on the
// next flush; upon failover, record processing is resumed from this point.
func (s *Store) SetCheckpoint(_ context.Context, streamName, shardID, sequenceNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sequenceNumber == "" {
		return fmt.Errorf("sequence number should not be empty")
	}

	s.checkpoints[key{streamName: streamName, shardID: shardID}] = sequenceNumber

	return nil
}

// Shutdown the store. Save any in-flight data.
func (s *Store) Shutdown() error {
	s.done <- struct{}{}
	return s.save(context.Background())
}

func (s *Store) loop() {
	tick := time.NewTicker(s.maxInterval)
	defer tick.Stop()
	defer close(s.done)

	for {
		select {
		case <-tick.C:
			if err := s.save(context.Background()); err != nil {
				log.Printf("save error: %v", err)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Store) save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, sequenceNumber := range s.checkpoints {
		av, err := attributevalue.MarshalMap(item{
			Namespace:      s.namespace(key.streamName),
			ShardID:        key.shardID,
			SequenceNumber: sequenceNumber,
		})
		if err != nil {
			return fmt.Errorf("marshal map error: %v", err)
		}

		params := &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		}
		for attempt := 0; ; attempt++ {
			if _, err := s.client.PutItem(ctx, params); err == nil {
				break
			} else if !s.retryer.ShouldRetry(err) || attempt >= maxSaveRetries {
				return err
			}
		}
	}

	return nil
}

func (s *Store) namespace(streamName string) string {
	return fmt.Sprintf("%s-%s", s.appName, streamName)
}
