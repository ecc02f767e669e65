// Package mockbackend provides the data and the scripted assistant bot behind
// the local stand-in for the hostel API.
package mockbackend

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is returned for a disabled account with a correct password.
	ErrAccountDisabled = errors.New("account disabled")
)

// User is one account of the mock directory.
type User struct {
	Email        string         `yaml:"email"`
	Password     string         `yaml:"password,omitempty"`
	PasswordHash string         `yaml:"password_hash,omitempty"`
	Disabled     bool           `yaml:"disabled,omitempty"`
	Profile      domain.Profile `yaml:"profile"`
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// Directory is an in-memory account store.
type Directory struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewDirectory indexes users by email, hashing plain-text passwords.
func NewDirectory(users []User) (*Directory, error) {
	d := &Directory{users: make(map[string]*User, len(users))}
	for i := range users {
		u := users[i]
		u.Email = normalizeEmail(u.Email)
		if u.Email == "" {
			return nil, fmt.Errorf("user %d: email is required", i)
		}
		if u.Profile.MemberType() == "" {
			return nil, fmt.Errorf("user %s: profile.member_type is required", u.Email)
		}
		if u.PasswordHash == "" {
			if u.Password == "" {
				return nil, fmt.Errorf("user %s: password or password_hash is required", u.Email)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash password for %s: %w", u.Email, err)
			}
			u.PasswordHash = string(hash)
		}
		u.Password = ""
		u.Profile = u.Profile.Merge(domain.Profile{"email": u.Email})
		d.users[u.Email] = &u
	}
	return d, nil
}

// LoadDirectory reads a YAML users file.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	return NewDirectory(f.Users)
}

// DemoUsers are the built-in accounts. Every password is "hostel123".
func DemoUsers() []User {
	const pw = "hostel123"
	return []User{
		{Email: "student@hostel.test", Password: pw, Profile: domain.Profile{
			"member_type": "student", "name": "Asha Verma", "enrollment_no": "BT21CSE042", "room": "B-204",
		}},
		{Email: "admin@hostel.test", Password: pw, Profile: domain.Profile{
			"member_type": "academicStaff", "name": "Dr. R. Kulkarni", "designation": "Chief Warden",
		}},
		{Email: "electrical@hostel.test", Password: pw, Profile: domain.Profile{
			"member_type": "electricalStaff", "name": "M. Shaikh", "department": "electrical",
		}},
		{Email: "disabled@hostel.test", Password: pw, Disabled: true, Profile: domain.Profile{
			"member_type": "student", "name": "Former Resident",
		}},
	}
}

// Authenticate checks credentials and returns a copy of the profile.
func (d *Directory) Authenticate(email, password string) (domain.Profile, error) {
	d.mu.RLock()
	u, ok := d.users[normalizeEmail(email)]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Disabled {
		return nil, ErrAccountDisabled
	}
	return u.Profile.Clone(), nil
}

// Profile returns the profile for email.
func (d *Directory) Profile(email string) (domain.Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[normalizeEmail(email)]
	if !ok || u.Disabled {
		return nil, false
	}
	return u.Profile.Clone(), true
}

// Len returns the number of accounts.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
