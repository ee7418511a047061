package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a user record in the database.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `gorm:"not null"`
	Role      string    `gorm:"type:varchar(16);not null;default:'user'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// Account represents an account record in the database.
type Account struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	MainBalance   decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	ProfitBalance decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Role          string          `gorm:"type:varchar(16);not null;default:'user'"`
	KYCStatus     string          `gorm:"column:kyc_status;type:varchar(16);not null;default:'unverified'"`
	Frozen        bool            `gorm:"not null;default:false"`
	Version       int64           `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Account) TableName() string { return "accounts" }

// Transaction represents a ledger transaction record in the database.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID          uuid.UUID       `gorm:"type:uuid;index"`
	Type            string          `gorm:"type:varchar(16);not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Status          string          `gorm:"type:varchar(16);index;not null"`
	Outcome         string          `gorm:"type:varchar(8)"`
	Method          string          `gorm:"type:varchar(64)"`
	Details         string          `gorm:"type:text"`
	RejectionReason string          `gorm:"type:text"`
	ReversedAt      *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (Transaction) TableName() string { return "transactions" }

// Investment represents an investment contract record in the database.
type Investment struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID             uuid.UUID       `gorm:"type:uuid;index"`
	PlanID             string          `gorm:"type:varchar(32);not null"`
	Amount             decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	DailyReturnPercent float64         `gorm:"not null"`
	StartDate          time.Time       `gorm:"not null"`
	EndDate            time.Time       `gorm:"not null"`
	Status             string          `gorm:"type:varchar(16);index;not null"`
	AccruedProfit      decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	LastAccruedAt      time.Time       `gorm:"not null"`
	TransactionID      uuid.UUID       `gorm:"type:uuid;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Investment) TableName() string { return "investments" }

// AuditLog represents an administrative action record.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActorID    uuid.UUID `gorm:"type:uuid;index"`
	Action     string    `gorm:"type:varchar(64);not null"`
	TargetType string    `gorm:"type:varchar(32)"`
	TargetID   uuid.UUID `gorm:"type:uuid"`
	Details    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// AutoMigrate creates the schema from the models. Production databases are
// migrated with the SQL files in infra/migrations; this is used for SQLite.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Account{}, &Transaction{}, &Investment{}, &AuditLog{})
}

// dbTime normalises timestamps to the microsecond precision PostgreSQL keeps,
// so values read back compare equal to values written.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
