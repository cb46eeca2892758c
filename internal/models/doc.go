// Package models defines the core domain models for messbill.
//
// # Models
//
//   - Member: an account that can log in; holds one or more roles
//   - AttendanceRecord: which meals a member had on one calendar day
//   - Bill: one member's charge for one calendar month
//   - BillIssue: a member's complaint about one of their bills
//   - Period: an inclusive [first day, last day] date range for one month
//
// # Design Principles
//
// 1. **Money is decimal**: all amounts use shopspring/decimal, never float64
// 2. **Dates are calendar days**: dates carry no time component and are stored as YYYY-MM-DD
// 3. **IDs over pointers**: relationships use ID strings, never nested structs
// 4. **Derived values are computed**: Bill.IsPaid and Bill.Balance are never stored
package models
