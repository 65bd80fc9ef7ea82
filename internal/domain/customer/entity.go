package customer

import (
	"net/mail"
	"time"
)

// Status は顧客アカウントの状態を表す
type Status string

const (
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	StatusActive              Status = "ACTIVE"
	StatusSuspended           Status = "SUSPENDED"
	StatusBlocked             Status = "BLOCKED"
)

// allowedTransitions は状態ごとの遷移先を定義する
var allowedTransitions = map[Status][]Status{
	StatusPendingVerification: {StatusActive, StatusBlocked},
	StatusActive:              {StatusSuspended, StatusBlocked},
	StatusSuspended:           {StatusActive, StatusBlocked},
	StatusBlocked:             {},
}

// MinimumAge は登録可能な最低年齢
const MinimumAge = 16

// StudentCard は学生証を表す
type StudentCard struct {
	Institution string
	Number      string
	ExpiresAt   time.Time
}

// IsValidAt は指定時点で学生証が有効かを返す
func (s StudentCard) IsValidAt(at time.Time) bool {
	return s.ExpiresAt.After(at)
}

// Customer は顧客エンティティを表す
type Customer struct {
	ID           string
	Name         string
	Email        string
	BirthDate    time.Time
	CPF          *CPF
	StudentCard  *StudentCard
	PasswordHash string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int // 楽観的ロック用
}

// NewCustomer は新しい顧客を作成する（状態はPENDING_VERIFICATION）
func NewCustomer(name, email string, birthDate time.Time, passwordHash string) *Customer {
	now := time.Now()
	return &Customer{
		Name:         name,
		Email:        email,
		BirthDate:    birthDate,
		PasswordHash: passwordHash,
		Status:       StatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      0,
	}
}

// Validate は顧客の検証を行う
func (c *Customer) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Email == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return ErrInvalidEmail
	}
	if c.BirthDate.IsZero() {
		return ErrBirthDateRequired
	}
	if ageAt(c.BirthDate, time.Now()) < MinimumAge {
		return ErrCustomerTooYoung
	}
	return nil
}

// ageAt は指定時点の満年齢を計算する
func ageAt(birthDate, at time.Time) int {
	age := at.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(age, 0, 0)
	if anniversary.After(at) {
		age--
	}
	return age
}

// UpdateProfile は氏名と生年月日を更新する
func (c *Customer) UpdateProfile(name string, birthDate time.Time) error {
	if name == "" {
		return ErrNameRequired
	}
	if birthDate.IsZero() {
		return ErrBirthDateRequired
	}
	if ageAt(birthDate, time.Now()) < MinimumAge {
		return ErrCustomerTooYoung
	}
	c.Name = name
	c.BirthDate = birthDate
	c.UpdatedAt = time.Now()
	return nil
}

// AssignCPF はCPFを登録する（登録済みの場合はエラー）
func (c *Customer) AssignCPF(input string) error {
	if c.CPF != nil {
		return ErrCPFAlreadyAssigned
	}
	cpf, err := ParseCPF(input)
	if err != nil {
		return err
	}
	c.CPF = &cpf
	c.UpdatedAt = time.Now()
	return nil
}

// RemoveCPF は登録済みのCPFを取り除く
func (c *Customer) RemoveCPF() error {
	if c.CPF == nil {
		return ErrCPFNotAssigned
	}
	c.CPF = nil
	c.UpdatedAt = time.Now()
	return nil
}

// AssignStudentCard は学生証を登録する（有効期限は未来であること）
func (c *Customer) AssignStudentCard(institution, number string, expiresAt time.Time) error {
	if institution == "" || number == "" || expiresAt.IsZero() {
		return ErrStudentCardIncomplete
	}
	if !expiresAt.After(time.Now()) {
		return ErrStudentCardExpired
	}
	c.StudentCard = &StudentCard{Institution: institution, Number: number, ExpiresAt: expiresAt}
	c.UpdatedAt = time.Now()
	return nil
}

// RemoveStudentCard は登録済みの学生証を取り除く
func (c *Customer) RemoveStudentCard() error {
	if c.StudentCard == nil {
		return ErrStudentCardNotAssigned
	}
	c.StudentCard = nil
	c.UpdatedAt = time.Now()
	return nil
}

// HasValidStudentCard は有効な学生証を持つかを返す
func (c *Customer) HasValidStudentCard() bool {
	return c.StudentCard != nil && c.StudentCard.IsValidAt(time.Now())
}

// ChangeStatus は遷移表に従って状態を変更する
// 同一状態への変更は何もしない
func (c *Customer) ChangeStatus(next Status) error {
	if next == c.Status {
		return nil
	}
	for _, allowed := range allowedTransitions[c.Status] {
		if allowed == next {
			c.Status = next
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrInvalidStatusTransition
}

// Activate はアカウントを有効化する
func (c *Customer) Activate() error { return c.ChangeStatus(StatusActive) }

// Suspend はアカウントを一時停止する
func (c *Customer) Suspend() error { return c.ChangeStatus(StatusSuspended) }

// Block はアカウントを恒久的に停止する（以後の遷移は不可）
func (c *Customer) Block() error { return c.ChangeStatus(StatusBlocked) }
