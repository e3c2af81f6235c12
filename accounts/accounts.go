// Package accounts holds the static test accounts of each environment and
// maps worker lanes onto them.
package accounts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
)

//go:embed data
var embedded embed.FS

const usersFileName = "testUser.json"

// Account is a login identity on the shop.
type Account struct {
	ID       *int   `json:"id,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// String omits the password so accounts can be logged.
func (a Account) String() string {
	if a.ID == nil {
		return fmt.Sprintf("%s (default)", a.Email)
	}
	return fmt.Sprintf("%s (id %d)", a.Email, *a.ID)
}

// Resolver picks the account a worker lane logs in with.
type Resolver interface {
	Resolve(workerID int) Account
}

// UsersFile is the account data of one environment.
type UsersFile struct {
	UsersList   []Account `json:"users"`
	DefaultUser Account   `json:"defaultUser"`
}

// Load reads <name>/testUser.json from fsys.
func Load(fsys fs.FS, name env.Name) (*UsersFile, error) {
	p := path.Join(string(name), usersFileName)
	b, err := fs.ReadFile(fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &common.UnknownEnvironmentError{Name: string(name)}
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts %q: %w", p, err)
	}

	var f UsersFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decoding accounts %q: %w", p, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("validating accounts %q: %w", p, err)
	}

	return &f, nil
}

// LoadEmbedded loads the account data compiled into the binary.
func LoadEmbedded(name env.Name) (*UsersFile, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("opening embedded accounts: %w", err)
	}
	return Load(sub, name)
}

// LoadDir loads account data from dir, laid out as <dir>/<env>/testUser.json.
// An empty dir loads the embedded data.
func LoadDir(dir string, name env.Name) (*UsersFile, error) {
	if dir == "" {
		return LoadEmbedded(name)
	}
	return Load(os.DirFS(dir), name)
}

func (f *UsersFile) validate() error {
	var errs []error
	if f.DefaultUser.Email == "" || f.DefaultUser.Password == "" {
		errs = append(errs, errors.New("default user needs an email and a password"))
	}
	seen := make(map[int]bool)
	for i, u := range f.UsersList {
		if u.Email == "" || u.Password == "" {
			errs = append(errs, fmt.Errorf("user %d needs an email and a password", i))
		}
		if u.ID == nil {
			continue
		}
		if seen[*u.ID] {
			errs = append(errs, fmt.Errorf("duplicate user id %d", *u.ID))
		}
		seen[*u.ID] = true
	}
	return errors.Join(errs...)
}

// Users returns the accounts with explicit ids.
func (f *UsersFile) Users() []Account { return f.UsersList }

// Default returns the fallback account.
func (f *UsersFile) Default() Account { return f.DefaultUser }

// UserByID returns the account whose id is id.
func (f *UsersFile) UserByID(id int) (Account, bool) {
	for _, u := range f.UsersList {
		if u.ID != nil && *u.ID == id {
			return u, true
		}
	}
	return Account{}, false
}

// Resolve returns the account whose id equals workerID, or the default
// account when there is none. It never fails.
func (f *UsersFile) Resolve(workerID int) Account {
	if u, ok := f.UserByID(workerID); ok {
		return u
	}
	return f.DefaultUser
}
