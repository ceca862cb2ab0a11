// Package quote persists quote-builder submissions by reference.
package quote

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/store"
)

// Collection is the name of the quotes collection.
const Collection = "quotes"

var emptyObject = json.RawMessage(`{}`)

// Quote is a saved quote. Client, Commercial, State and Solution are
// produced by the quote builder and stored verbatim.
type Quote struct {
	Ref        string          `json:"ref"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
	Client     json.RawMessage `json:"client"`
	Commercial json.RawMessage `json:"commercial"`
	State      json.RawMessage `json:"state"`
	Discount   float64         `json:"discount"`
	Solution   json.RawMessage `json:"solution"`
}

// Input is a quote submission.
type Input struct {
	Ref        string          `json:"ref"`
	CreatedAt  string          `json:"createdAt"`
	Client     json.RawMessage `json:"client"`
	Commercial json.RawMessage `json:"commercial"`
	State      json.RawMessage `json:"state"`
	Discount   Amount          `json:"discount"`
	Solution   json.RawMessage `json:"solution"`
}

// Amount is a number that also decodes from a numeric string, as form
// posts send it. Anything else reads as 0.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = 0
	switch x := v.(type) {
	case float64:
		*a = Amount(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			*a = Amount(f)
		}
	}
	return nil
}

// Service saves and loads quotes.
type Service struct {
	quotes *store.Collection[Quote]
	log    *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *store.DB, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		quotes: store.NewCollection[Quote](db, Collection),
		log:    log.Named("quote"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores in under its reference, replacing any previous version.
// createdAt comes from the input, else the stored quote, else now.
func (s *Service) Save(in Input) (Quote, error) {
	ref := strings.TrimSpace(in.Ref)
	if ref == "" {
		return Quote{}, store.Invalid("Reference manquante")
	}
	q, err := s.quotes.Upsert(ref, func(current Quote, found bool) (Quote, error) {
		now := store.Timestamp(s.now())
		createdAt := strings.TrimSpace(in.CreatedAt)
		if createdAt == "" && found {
			createdAt = current.CreatedAt
		}
		if createdAt == "" {
			createdAt = now
		}
		return Quote{
			Ref:        ref,
			CreatedAt:  createdAt,
			UpdatedAt:  now,
			Client:     objectOrEmpty(in.Client),
			Commercial: objectOrEmpty(in.Commercial),
			State:      objectOrEmpty(in.State),
			Discount:   float64(in.Discount),
			Solution:   nullIfEmpty(in.Solution),
		}, nil
	})
	if err != nil {
		return Quote{}, err
	}
	s.log.Info("quote saved", zap.String("ref", ref))
	return q, nil
}

// Get returns the quote stored under ref.
func (s *Service) Get(ref string) (Quote, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Quote{}, store.Invalid("Reference manquante")
	}
	q, found, err := s.quotes.Get(ref)
	if err != nil {
		return Quote{}, err
	}
	if !found {
		return Quote{}, store.NotFound("Devis introuvable")
	}
	return q, nil
}

// Count returns the number of stored quotes.
func (s *Service) Count() (int, error) {
	docs, err := s.quotes.ReadAll()
	if err != nil {
		return 0, err
	}
	return docs.Len(), nil
}

func objectOrEmpty(raw json.RawMessage) json.RawMessage {
	if isBlank(raw) {
		return emptyObject
	}
	return raw
}

func nullIfEmpty(raw json.RawMessage) json.RawMessage {
	if isBlank(raw) {
		return json.RawMessage("null")
	}
	return raw
}

func isBlank(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
