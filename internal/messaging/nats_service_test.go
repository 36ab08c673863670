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

package messaging

import (
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Rolandjg/skool4free/internal/config"
	"github.com/Rolandjg/skool4free/internal/events"
)

func newUnconnectedService(t *testing.T) *NATSService {
	t.Helper()

	ns, err := NewNATSService(config.NATSConfig{
		URL:           "nats://localhost:14333",
		MaxReconnect:  1,
		ReconnectWait: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewNATSService() error: %v", err)
	}
	return ns
}

func TestNewNATSService_DefaultURL(t *testing.T) {
	ns, err := NewNATSService(config.NATSConfig{})
	if err != nil {
		t.Fatalf("NewNATSService() error: %v", err)
	}
	if ns.url != nats.DefaultURL {
		t.Errorf("url = %q, want %q", ns.url, nats.DefaultURL)
	}
}

func TestNATSService_PublishWithoutConnection(t *testing.T) {
	tests := []struct {
		name  string
		event *events.LectureEvent
	}{
		{
			name:  "lecture_event",
			event: events.NewLectureEvent("session-1", events.KindSlideRevealed),
		},
		{
			name:  "question_event",
			event: events.NewLectureEvent("session-1", events.KindQuestionAnswered),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := newUnconnectedService(t)

			err := ns.PublishLectureEvent(tt.event)
			if err == nil {
				t.Fatal("expected error when not connected")
			}
			if !strings.Contains(err.Error(), "not established") {
				t.Errorf("error = %v, want connection failure", err)
			}
		})
	}
}

func TestNATSService_PublishOnNilService(t *testing.T) {
	var ns *NATSService

	event := events.NewLectureEvent("session-1", events.KindLectureStarted)
	if err := ns.PublishLectureEvent(event); err == nil {
		t.Fatal("expected error on nil service")
	}
}

func TestNATSService_SubscribeWithoutConnection(t *testing.T) {
	ns := newUnconnectedService(t)

	sub, err := ns.SubscribeToLectureEvents(func(*events.LectureEvent) {})
	if err == nil {
		t.Fatal("expected error when not connected")
	}
	if sub != nil {
		t.Error("subscription should be nil on failure")
	}
}

func TestNATSService_ConnectionState(t *testing.T) {
	ns := newUnconnectedService(t)

	if ns.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}

	var nilService *NATSService
	if nilService.IsConnected() {
		t.Error("IsConnected() = true on nil service")
	}

	stats := ns.GetStats()
	if stats.OutMsgs != 0 || stats.InMsgs != 0 {
		t.Errorf("GetStats() before Connect = %+v, want zero", stats)
	}

	// Close must be safe regardless of connection state.
	ns.Close()
	nilService.Close()
}

func TestNATSService_ConnectFailure(t *testing.T) {
	ns := newUnconnectedService(t)

	// Nothing is listening on the test port, so Connect must fail
	// without leaving the service half-wired.
	if err := ns.Connect(); err == nil {
		ns.Close()
		t.Fatal("expected connection error for unreachable server")
	}
	if ns.IsConnected() {
		t.Error("IsConnected() = true after failed Connect")
	}
}
