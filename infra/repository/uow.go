package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/yieldvault/ledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories obtained inside Do share the transaction's session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.AccountRepository)(nil)).Elem():     func(db *gorm.DB) any { return NewAccountRepository(db) },
			reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem(): func(db *gorm.DB) any { return NewTransactionRepository(db) },
			reflect.TypeOf((*repository.InvestmentRepository)(nil)).Elem():  func(db *gorm.DB) any { return NewInvestmentRepository(db) },
			reflect.TypeOf((*repository.UserRepository)(nil)).Elem():        func(db *gorm.DB) any { return NewUserRepository(db) },
			reflect.TypeOf((*repository.AuditRepository)(nil)).Elem():       func(db *gorm.DB) any { return NewAuditRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository returns the repository registered for repoType, bound to the
// transaction session inside Do and to the plain connection outside it.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	session := u.tx
	if session == nil {
		session = u.db
	}
	return constructor(session), nil
}

func getTyped[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("invalid repository type %T", repoAny)
	}
	return repo, nil
}

// AccountRepository implements repository.UnitOfWork.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return getTyped[repository.AccountRepository](u)
}

// TransactionRepository implements repository.UnitOfWork.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return getTyped[repository.TransactionRepository](u)
}

// InvestmentRepository implements repository.UnitOfWork.
func (u *UoW) InvestmentRepository() (repository.InvestmentRepository, error) {
	return getTyped[repository.InvestmentRepository](u)
}

// UserRepository implements repository.UnitOfWork.
func (u *UoW) UserRepository() (repository.UserRepository, error) {
	return getTyped[repository.UserRepository](u)
}

// AuditRepository implements repository.UnitOfWork.
func (u *UoW) AuditRepository() (repository.AuditRepository, error) {
	return getTyped[repository.AuditRepository](u)
}

var _ repository.UnitOfWork = (*UoW)(nil)
