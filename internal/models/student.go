package models

import "time"

type Student struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Surname    string    `db:"surname"`
	Email      string    `db:"email"`
	Phone      string    `db:"phone"`
	Notes      string    `db:"notes"`
	EnrolledOn time.Time `db:"enrolled_on"`
	MonthlyFee float64   `db:"monthly_fee"`
	Active     bool      `db:"active"`
}

type Room struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// MonthlyPayment records that a student paid the fee for (year, month).
// One row per key; paying twice is a no-op.
type MonthlyPayment struct {
	StudentID int64     `db:"student_id"`
	Year      int       `db:"year"`
	Month     int       `db:"month"`
	PaidOn    time.Time `db:"paid_on"`
}

// MembershipFee is the flat annual association fee, one row per (student, year).
type MembershipFee struct {
	StudentID int64      `db:"student_id"`
	Year      int        `db:"year"`
	Paid      bool       `db:"paid"`
	PaidOn    *time.Time `db:"paid_on"`
}
