// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// MaxMessageLength is the maximum number of characters in a task message.
const MaxMessageLength = 100

// Status is the progress state of a task.
type Status string

// Task statuses.
const (
	StatusStarted     Status = "Started"
	StatusProgressing Status = "Progressing"
	StatusCompleted   Status = "Completed"
	StatusIncomplete  Status = "Incomplete"
)

// Statuses contains all task statuses in display order.
var Statuses = []Status{StatusStarted, StatusProgressing, StatusCompleted, StatusIncomplete}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusStarted, StatusProgressing, StatusCompleted, StatusIncomplete:
		return true
	}
	return false
}

// Department is the organisational unit a task belongs to.
type Department string

// Departments.
const (
	DepartmentSales     Department = "Sales"
	DepartmentAccounts  Department = "Accounts"
	DepartmentHR        Department = "HR"
	DepartmentMarketing Department = "Marketing"
	DepartmentIT        Department = "IT"
)

// Departments contains all departments in display order.
var Departments = []Department{DepartmentSales, DepartmentAccounts, DepartmentHR, DepartmentMarketing, DepartmentIT}

// Valid reports whether d is one of the known departments.
func (d Department) Valid() bool {
	switch d {
	case DepartmentSales, DepartmentAccounts, DepartmentHR, DepartmentMarketing, DepartmentIT:
		return true
	}
	return false
}

// Remark is the health flag attached to a task.
type Remark string

// Remarks.
const (
	RemarkGreenFlag Remark = "Green Flag"
	RemarkRedFlag   Remark = "Red Flag"
)

// Remarks contains all remarks in display order.
var Remarks = []Remark{RemarkGreenFlag, RemarkRedFlag}

// Valid reports whether r is one of the known remarks.
func (r Remark) Valid() bool {
	return r == RemarkGreenFlag || r == RemarkRedFlag
}

// Task is a unit of work assigned to a user.
type Task struct {
	ID            string     `json:"id"`
	AssignedTo    string     `json:"assigned_to"`
	ProjectName   string     `json:"project_name"`
	ExpectedHours float64    `json:"expected_hours"`
	Status        Status     `json:"status"`
	Department    Department `json:"department"`
	Remark        Remark     `json:"remark"`
	Message       string     `json:"message"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsAssignedTo reports whether the task is assigned to the given email.
func (t *Task) IsAssignedTo(email string) bool {
	return email != "" && t.AssignedTo == email
}

// TaskSummary is a task joined with the total hours logged against it.
type TaskSummary struct {
	Task
	TotalHoursSpent float64 `json:"total_hours_spent"`
}

// TimeLogEntry is an append-only record of hours worked on a task.
type TimeLogEntry struct {
	ID         int64     `json:"id"`
	TaskID     string    `json:"task_id"`
	UserEmail  string    `json:"user_email"`
	HoursSpent float64   `json:"hours_spent"`
	LogDate    time.Time `json:"log_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// DateLayout is the calendar date format used for log dates.
const DateLayout = "2006-01-02"

// TotalHours sums the hours of every entry that references taskID.
func TotalHours(entries []TimeLogEntry, taskID string) float64 {
	var total float64
	for _, e := range entries {
		if e.TaskID == taskID {
			total += e.HoursSpent
		}
	}
	return total
}
