// Package admin manages administrator accounts and their session tokens.
package admin

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/store"
)

// Collection is the name of the admins collection.
const Collection = "admins"

// Role is reported for every authenticated administrator.
const Role = "admin"

// Admin is a stored administrator account keyed by Username.
type Admin struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash,omitempty"`
	// Password is a plaintext password from an older admins file. It is
	// replaced by PasswordHash on the first successful login.
	Password  string  `json:"password,omitempty"`
	Token     *string `json:"token"`
	LastLogin string  `json:"lastLogin,omitempty"`

	// Extra keeps profile fields this package does not manage.
	Extra store.Extra `json:"-"`
}

type adminFields Admin

var knownFields = []string{"username", "name", "passwordHash", "password", "token", "lastLogin"}

func (a Admin) MarshalJSON() ([]byte, error) {
	return store.MarshalWithExtra(adminFields(a), a.Extra)
}

func (a *Admin) UnmarshalJSON(b []byte) error {
	var fields adminFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	extra, err := store.SplitExtra(b, knownFields)
	if err != nil {
		return err
	}
	*a = Admin(fields)
	a.Extra = extra
	return nil
}

// User is the public view of a signed-in administrator.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

func (a Admin) user() User {
	name := a.Name
	if name == "" {
		name = a.Username
	}
	return User{Username: a.Username, Name: name, Role: Role}
}

// Service authenticates administrators.
type Service struct {
	admins *store.Collection[Admin]
	log    *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for lastLogin.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *store.DB, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		admins: store.NewCollection[Admin](db, Collection),
		log:    log.Named("admin"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed creates the default administrator unless an account with that
// username already exists.
func (s *Service) Seed(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("seed admin: username and password are required")
	}
	err := s.admins.Update(func(docs *store.Documents[Admin]) error {
		if _, ok := docs.Get(username); ok {
			return nil
		}
		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		docs.Set(username, Admin{
			Username:     username,
			Name:         "Administrator",
			PasswordHash: hash,
		})
		s.log.Info("seeded administrator", zap.String("username", username))
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

// Login checks the credentials and issues a new session token.
func (s *Service) Login(username, password string) (User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, "", store.Invalid("Identifiants manquants")
	}

	var (
		user  User
		token = newToken()
	)
	err := s.admins.Update(func(docs *store.Documents[Admin]) error {
		a, ok := docs.Get(username)
		if !ok || !s.checkPassword(&a, password) {
			return store.Invalid("Identifiants invalides")
		}
		a.Token = &token
		a.LastLogin = store.Timestamp(s.now())
		docs.Set(username, a)
		user = a.user()
		return nil
	})
	if err != nil {
		return User{}, "", err
	}
	s.log.Info("administrator signed in", zap.String("username", username))
	return user, token, nil
}

// checkPassword verifies password and upgrades a legacy plaintext
// password to a hash in place.
func (s *Service) checkPassword(a *Admin, password string) bool {
	if a.PasswordHash != "" {
		return VerifyPassword(password, a.PasswordHash)
	}
	if a.Password == "" || subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) != 1 {
		return false
	}
	hash, err := HashPassword(password)
	if err != nil {
		s.log.Warn("could not hash legacy password", zap.String("username", a.Username), zap.Error(err))
		return true
	}
	a.PasswordHash = hash
	a.Password = ""
	return true
}

// Authenticate returns the administrator holding token.
func (s *Service) Authenticate(token string) (User, bool, error) {
	if token == "" {
		return User{}, false, nil
	}
	docs, err := s.admins.ReadAll()
	if err != nil {
		return User{}, false, err
	}
	username, ok := tokenIndex(docs)[token]
	if !ok {
		return User{}, false, nil
	}
	a, _ := docs.Get(username)
	return a.user(), true, nil
}

// Logout revokes token for every administrator holding it.
func (s *Service) Logout(token string) error {
	return s.admins.Update(func(docs *store.Documents[Admin]) error {
		if token == "" {
			return nil
		}
		for pair := docs.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.Token != nil && *pair.Value.Token == token {
				pair.Value.Token = nil
				s.log.Info("administrator signed out", zap.String("username", pair.Key))
			}
		}
		return nil
	})
}

// tokenIndex maps live session tokens to usernames.
func tokenIndex(docs *store.Documents[Admin]) map[string]string {
	idx := make(map[string]string, docs.Len())
	for pair := docs.Oldest(); pair != nil; pair = pair.Next() {
		if t := pair.Value.Token; t != nil && *t != "" {
			idx[*t] = pair.Key
		}
	}
	return idx
}

func newToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
