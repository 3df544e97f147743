package config

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

var ErrPoolClosed = errors.New("mongo pool is closed")

// MongoPool owns the process-wide client. Connect runs at most once and
// Database connects lazily on first use.
type MongoPool struct {
	uri    string
	dbName string

	mu     sync.Mutex
	client *mongo.Client
	closed bool
}

func NewMongoPool(cfg MongoConfig) *MongoPool {
	return &MongoPool{uri: cfg.URI, dbName: cfg.Database}
}

func (p *MongoPool) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked(ctx)
}

func (p *MongoPool) connectLocked(ctx context.Context) error {
	if p.closed {
		return ErrPoolClosed
	}
	if p.client != nil {
		return nil
	}
	if p.uri == "" {
		return errors.New("MONGODB_URI is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(p.uri))
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping mongodb: %w", err)
	}

	p.client = client
	return nil
}

// Database returns the configured database, connecting first if needed.
func (p *MongoPool) Database(ctx context.Context) (*mongo.Database, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}
	return p.client.Database(p.dbName), nil
}

func (p *MongoPool) Ping(ctx context.Context) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if client == nil {
		return errors.New("mongo pool is not connected")
	}
	return client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the client. The pool cannot be reused afterwards.
func (p *MongoPool) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.client == nil {
		return nil
	}
	err := p.client.Disconnect(ctx)
	p.client = nil
	return err
}
