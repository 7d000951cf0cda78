package entity

import (
	"database/sql"
	"time"
)

// StudentStatus is the custom type to enforce enum-like behavior
type StudentStatus string

func (ss StudentStatus) String() string {
	return string(ss)
}

const (
	StudentActive   StudentStatus = "active"
	StudentInactive StudentStatus = "inactive"
)

// Guardian represents the guardian table: the billing contact of one or more students.
type Guardian struct {
	Id        int       `db:"id"`
	TenantId  int       `db:"tenant_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
}

// GuardianInsert carries a new guardian created from waitlist entry contact details.
type GuardianInsert struct {
	Name  string
	Email string
	Phone string
}

// Student represents the student table.
type Student struct {
	Id        int           `db:"id"`
	TenantId  int           `db:"tenant_id"`
	FirstName string        `db:"first_name"`
	LastName  string        `db:"last_name"`
	TeacherId sql.NullInt32 `db:"teacher_id"`
	Status    StudentStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
}

// StudentInsert carries a new student created during waitlist conversion.
type StudentInsert struct {
	FirstName string
	LastName  string
	TeacherId sql.NullInt32
}

// StudentGuardian represents the student_guardian link table.
type StudentGuardian struct {
	StudentId    int       `db:"student_id"`
	GuardianId   int       `db:"guardian_id"`
	PrimaryPayer bool      `db:"primary_payer"`
	CreatedAt    time.Time `db:"created_at"`
}
