package event

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventCouponIssued    = "coupon.issued"
	EventSurveyCompleted = "survey.completed"
	EventOptInRecorded   = "optin.recorded"
)

type CouponIssuedPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	CouponID uuid.UUID `json:"coupon_id"`
	Email    string    `json:"email"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

type SurveyCompletedPayload struct {
	TenantID   uuid.UUID  `json:"tenant_id"`
	CouponID   *uuid.UUID `json:"coupon_id,omitempty"`
	ResponseID uuid.UUID  `json:"response_id"`
	Email      string     `json:"email,omitempty"`
	Answers    int        `json:"answers"`
}

type OptInRecordedPayload struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	Email       string    `json:"email"`
	ConsentedAt time.Time `json:"consented_at"`
}

// Bus is the in-process analytics fan-out. Publish never blocks the
// caller: handlers run on their own goroutines, and a panicking or slow
// subscriber cannot fail the request that produced the event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func(payload any)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]func(payload any))}
}

func (b *Bus) Subscribe(event string, handler func(payload any)) {
	if b == nil || handler == nil {
		return
	}
	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *Bus) Publish(event string, payload any) {
	if b == nil {
		return
	}
	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	b.mu.RLock()
	handlers := b.handlers[eventName]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		go func(h func(payload any)) {
			defer func() {
				_ = recover()
			}()
			h(payload)
		}(handler)
	}
}
