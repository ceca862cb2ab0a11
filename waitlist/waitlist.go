// Package waitlist records signups for products that are not released yet.
package waitlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/store"
)

// Collection is the name of the waitlist collection.
const Collection = "waitlist"

// DefaultProduct is used when a signup names no product.
const DefaultProduct = "salepro-restaurant"

// Entry is one waitlist signup.
type Entry struct {
	ID        string `json:"id"`
	Product   string `json:"product"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Note      string `json:"note"`
	CreatedAt string `json:"createdAt"`

	// Extra keeps fields written by other tools.
	Extra store.Extra `json:"-"`
}

type entryFields Entry

var knownFields = []string{"id", "product", "name", "company", "phone", "email", "note", "createdAt"}

func (e Entry) MarshalJSON() ([]byte, error) {
	return store.MarshalWithExtra(entryFields(e), e.Extra)
}

// UnmarshalJSON accepts numbers and booleans where a string is expected,
// so a phone number stored as a JSON number still reads back.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var out Entry
	err := decodeScalars(b, map[string]*string{
		"id":        &out.ID,
		"product":   &out.Product,
		"name":      &out.Name,
		"company":   &out.Company,
		"phone":     &out.Phone,
		"email":     &out.Email,
		"note":      &out.Note,
		"createdAt": &out.CreatedAt,
	})
	if err != nil {
		return err
	}
	if out.Extra, err = store.SplitExtra(b, knownFields); err != nil {
		return err
	}
	*e = out
	return nil
}

// UnmarshalJSON reads every field as text, whatever its JSON scalar type.
func (in *Input) UnmarshalJSON(b []byte) error {
	var out Input
	err := decodeScalars(b, map[string]*string{
		"product": &out.Product,
		"name":    &out.Name,
		"company": &out.Company,
		"phone":   &out.Phone,
		"email":   &out.Email,
		"note":    &out.Note,
	})
	if err != nil {
		return err
	}
	*in = out
	return nil
}

// decodeScalars sets each target from the JSON object field of the same
// name. Absent fields and null leave the target empty.
func decodeScalars(b []byte, targets map[string]*string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	for name, dst := range targets {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		v, err := scalar(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = v
	}
	return nil
}

func scalar(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return "", fmt.Errorf("expected a scalar, got %s", raw)
}

// Input is a signup form submission.
type Input struct {
	Product string `json:"product"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Note    string `json:"note"`
}

// Service appends to and lists the waitlist.
type Service struct {
	entries *store.Sequence[Entry]
	node    *snowflake.Node
	log     *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service whose entry ids come from snowflake node
// nodeID, so ids stay unique across processes given distinct node ids.
func NewService(db *store.DB, nodeID int64, log *zap.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("waitlist id node: %w", err)
	}
	s := &Service{
		entries: store.NewSequence[Entry](db, Collection),
		node:    node,
		log:     log.Named("waitlist"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewID returns a time-ordered id in upper-case base 36.
func (s *Service) NewID() string {
	return strings.ToUpper(s.node.Generate().Base36())
}

// Add validates in and appends it. A name and at least one of phone or
// email are required.
func (s *Service) Add(in Input) (Entry, error) {
	e := Entry{
		Product: strings.TrimSpace(in.Product),
		Name:    strings.TrimSpace(in.Name),
		Company: strings.TrimSpace(in.Company),
		Phone:   strings.TrimSpace(in.Phone),
		Email:   strings.TrimSpace(in.Email),
		Note:    strings.TrimSpace(in.Note),
	}
	if e.Product == "" {
		e.Product = DefaultProduct
	}
	if e.Name == "" || (e.Phone == "" && e.Email == "") {
		return Entry{}, store.Invalid("Nom et contact requis")
	}
	e.ID = s.NewID()
	e.CreatedAt = store.Timestamp(s.now())

	if err := s.entries.Append(e); err != nil {
		return Entry{}, err
	}
	s.log.Info("waitlist signup", zap.String("id", e.ID), zap.String("product", e.Product))
	return e, nil
}

// List returns every entry in signup order.
func (s *Service) List() ([]Entry, error) {
	return s.entries.ReadAll()
}

// Count returns the number of entries.
func (s *Service) Count() (int, error) {
	entries, err := s.entries.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
