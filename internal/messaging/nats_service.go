/*
 * This file is part of Skool4Free (https://github.com/Rolandjg/skool4free).
 * Copyright (C) 2025 Skool4Free
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package messaging publishes lecture lifecycle events to NATS so external
// tools (dashboards, graders, recorders) can follow a lecture in real time.
package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Rolandjg/skool4free/internal/config"
	"github.com/Rolandjg/skool4free/internal/events"
)

// NATS subjects for the different event streams
const (
	SubjectLectureEvents = "skool4free.lecture.events"
	SubjectQuestions     = "skool4free.lecture.questions"
	SubjectSystemEvents  = "skool4free.system.events"
)

// NATSService handles NATS messaging for the lecture pipeline
type NATSService struct {
	conn *nats.Conn
	url  string

	maxReconnect  int
	reconnectWait time.Duration
}

// NewNATSService creates a new NATS service instance from config
func NewNATSService(cfg config.NATSConfig) (*NATSService, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	return &NATSService{
		url:           url,
		maxReconnect:  cfg.MaxReconnect,
		reconnectWait: cfg.ReconnectWait,
	}, nil
}

// Connect establishes connection to the NATS server
func (ns *NATSService) Connect() error {
	log.Printf("🔌 Connecting to NATS at %s", ns.url)

	opts := []nats.Option{
		nats.Name("skool4free"),
		nats.ReconnectWait(ns.reconnectWait),
		nats.MaxReconnects(ns.maxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️  NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔄 NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(ns.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	log.Printf("✅ Connected to NATS server at %s", conn.ConnectedUrl())
	return nil
}

// PublishLectureEvent publishes a lecture lifecycle event. Question events
// additionally go out on their own subject so subscribers can follow just
// the Q&A side channel.
func (ns *NATSService) PublishLectureEvent(event *events.LectureEvent) error {
	if ns == nil || ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lecture event: %w", err)
	}

	subject := SubjectLectureEvents
	if event.Kind == events.KindQuestionAnswered {
		subject = SubjectQuestions
	}
	if err := ns.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.Printf("📤 Published lecture event to NATS - Kind: %s, Session: %s",
		event.Kind, event.SessionID)
	return nil
}

// SubscribeToLectureEvents subscribes to lecture lifecycle events
func (ns *NATSService) SubscribeToLectureEvents(handler func(*events.LectureEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectLectureEvents, func(msg *nats.Msg) {
		var event events.LectureEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling lecture event: %v", err)
			return
		}

		log.Printf("📥 Received lecture event from NATS - Kind: %s, Session: %s",
			event.Kind, event.SessionID)
		handler(&event)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns != nil && ns.conn != nil {
		ns.conn.Close()
		log.Println("🔌 NATS connection closed")
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns != nil && ns.conn != nil && ns.conn.IsConnected()
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}
