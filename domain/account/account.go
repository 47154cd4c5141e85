package account

import (
	"errors"
	"time"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/domain"
)

// Account is the address-keyed registry entry stored in database. Name is
// the human-readable display name; the empty string means unset.
type Account struct {
	Address   domain.Address `bson:"address"`
	Name      string         `bson:"name"`
	Nonce     int32          `bson:"nonce"`
	CreatedAt time.Time      `bson:"createdAt,omitempty"`
	UpdatedAt time.Time      `bson:"updatedAt,omitempty"`
}

func (a *Account) ToInfo() *Info {
	return &Info{
		Address: a.Address,
		Name:    a.Name,
	}
}

// Info is the account struct returned to clients. EnsName carries the
// reverse-resolved ENS name and never affects the Name registry itself.
type Info struct {
	Address domain.Address `json:"address"`
	Name    string         `json:"name"`
	EnsName string         `json:"ensName,omitempty"`
}

// Updater to update account fields
type Updater struct {
	Name      *string   `json:"name" bson:"name"`
	Nonce     *int32    `json:"-" bson:"nonce"`
	UpdatedAt time.Time `json:"-" bson:"updatedAt,omitempty"`
}

var (
	// ErrInvalidNonce occured when validating a signature but the nonce of the address has not generated
	ErrInvalidNonce = errors.New("invalid nonce")
	// ErrInvalidSignature occured when a signature is invalid
	ErrInvalidSignature = errors.New("invalid signature")
)

// Usecase is account usecase
type Usecase interface {
	Create(c ctx.Ctx, address domain.Address) (*Info, error)
	Get(c ctx.Ctx, address domain.Address) (*Info, error)
	// SetName unconditionally sets the caller's display name; no
	// uniqueness constraint.
	SetName(c ctx.Ctx, address domain.Address, name string) (*Info, error)
	// GetName returns the registered display name, or "" when unset.
	GetName(c ctx.Ctx, address domain.Address) (string, error)

	GenerateNonce(c ctx.Ctx, address domain.Address) (int32, error)
	ValidateSignature(c ctx.Ctx, address domain.Address, signature string) error

	GetActivities(c ctx.Ctx, address domain.Address, opts ...FindActivityHistoryOptions) (*ActivityResult, error)
}

// Repo is account repo
type Repo interface {
	Get(c ctx.Ctx, address domain.Address) (*Account, error)
	GetAccounts(c ctx.Ctx, addresses []domain.Address) ([]*Account, error)
	Insert(c ctx.Ctx, account *Account) error
	Update(c ctx.Ctx, address domain.Address, updater *Updater) error
}
