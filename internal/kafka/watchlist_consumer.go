package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// CandidateRepository defines the interface for candidate pool operations
type CandidateRepository interface {
	UpsertCandidateBasic(symbol, name string) error
	UpsertCandidateWithSector(symbol, name, sector, industry string) error
	DeactivateCandidate(symbol string) error
}

// WatchlistEvent represents a watchlist event from Kafka
type WatchlistEvent struct {
	EventType string             `json:"event_type"`
	Source    string             `json:"source"`
	Timestamp string             `json:"timestamp"`
	Data      WatchlistEventData `json:"data"`
}

// WatchlistEventData holds the data for different watchlist event types
type WatchlistEventData struct {
	// For WATCHLIST_UPDATED events
	AddedSymbols   []string         `json:"added_symbols,omitempty"`
	RemovedSymbols []string         `json:"removed_symbols,omitempty"`
	AllSymbols     []string         `json:"all_symbols,omitempty"`
	TotalCount     int              `json:"total_count,omitempty"`
	Stocks         []WatchlistStock `json:"stocks,omitempty"`

	// For WATCHLIST_SYMBOL_ADDED/REMOVED events
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// WatchlistStock represents stock details in the event
type WatchlistStock struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Sector        string `json:"sector"`
	Industry      string `json:"industry"`
	InstrumentURL string `json:"instrument_url"`
	AddedAt       string `json:"added_at"`
}

// WatchlistConsumer maintains the candidate pool from watchlist events
type WatchlistConsumer struct {
	reader *kafka.Reader
	repo   CandidateRepository
}

// NewWatchlistConsumer creates a new Kafka consumer for watchlist events
func NewWatchlistConsumer(brokers []string, topic, groupID string, repo CandidateRepository) *WatchlistConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-watchlist",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &WatchlistConsumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages from Kafka
func (c *WatchlistConsumer) Start(ctx context.Context) error {
	log.Printf("Starting watchlist consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Watchlist consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading watchlist message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing watchlist message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *WatchlistConsumer) processMessage(msg kafka.Message) error {
	log.Printf("Received watchlist message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event WatchlistEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal watchlist event: %w", err)
	}

	log.Printf("Processing watchlist event: %s", event.EventType)

	switch event.EventType {
	case "WATCHLIST_UPDATED":
		return c.handleWatchlistUpdated(event)

	case "WATCHLIST_SYMBOL_ADDED":
		return c.handleSymbolAdded(event)

	case "WATCHLIST_SYMBOL_REMOVED":
		return c.handleSymbolRemoved(event)

	default:
		log.Printf("Ignoring unknown watchlist event type: %s", event.EventType)
		return nil
	}
}

// handleWatchlistUpdated processes a full watchlist update event
func (c *WatchlistConsumer) handleWatchlistUpdated(event WatchlistEvent) error {
	log.Printf("Processing watchlist update: %d added, %d removed, %d total",
		len(event.Data.AddedSymbols),
		len(event.Data.RemovedSymbols),
		event.Data.TotalCount)

	// Process added symbols
	for _, symbol := range event.Data.AddedSymbols {
		symbol = strings.ToUpper(symbol)
		name := symbol
		sector := ""
		industry := ""

		// Find details from stocks list
		for _, stock := range event.Data.Stocks {
			if strings.ToUpper(stock.Symbol) == symbol {
				name = stock.Name
				sector = stock.Sector
				industry = stock.Industry
				break
			}
		}

		var err error
		if sector != "" {
			err = c.repo.UpsertCandidateWithSector(symbol, name, sector, industry)
		} else {
			err = c.repo.UpsertCandidateBasic(symbol, name)
		}
		if err != nil {
			log.Printf("Error upserting candidate %s: %v", symbol, err)
			continue
		}
		log.Printf("Added/updated candidate: %s (%s)", symbol, name)
	}

	// Removed symbols are deactivated, not deleted: their signal history
	// stays, they just stop being eligible
	for _, symbol := range event.Data.RemovedSymbols {
		symbol = strings.ToUpper(symbol)
		if err := c.repo.DeactivateCandidate(symbol); err != nil {
			log.Printf("Error deactivating candidate %s: %v", symbol, err)
			continue
		}
		log.Printf("Deactivated candidate: %s", symbol)
	}

	return nil
}

// handleSymbolAdded processes a single symbol added event
func (c *WatchlistConsumer) handleSymbolAdded(event WatchlistEvent) error {
	symbol := strings.ToUpper(event.Data.Symbol)
	name := event.Data.Name
	if name == "" {
		name = symbol
	}

	var err error
	if event.Data.Sector != "" {
		err = c.repo.UpsertCandidateWithSector(symbol, name, event.Data.Sector, event.Data.Industry)
	} else {
		err = c.repo.UpsertCandidateBasic(symbol, name)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert candidate %s: %w", symbol, err)
	}

	log.Printf("Added/updated candidate from watchlist: %s (%s)", symbol, name)
	return nil
}

// handleSymbolRemoved processes a single symbol removed event
func (c *WatchlistConsumer) handleSymbolRemoved(event WatchlistEvent) error {
	symbol := strings.ToUpper(event.Data.Symbol)

	if err := c.repo.DeactivateCandidate(symbol); err != nil {
		// The symbol may never have been a candidate; not fatal
		log.Printf("Could not deactivate candidate %s: %v", symbol, err)
		return nil
	}

	log.Printf("Deactivated candidate from watchlist: %s", symbol)
	return nil
}

// Close closes the Kafka consumer
func (c *WatchlistConsumer) Close() error {
	return c.reader.Close()
}
