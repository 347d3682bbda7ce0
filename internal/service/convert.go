package service

import (
	"time"

	"github.com/olegiv/pmt-go/internal/model"
	"github.com/olegiv/pmt-go/internal/store"
)

func userFromRow(u store.User) model.User {
	return model.User{
		Email:     u.Email,
		Role:      model.Role(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func taskFromRow(t store.Task) model.Task {
	return model.Task{
		ID:            t.ID,
		AssignedTo:    t.AssignedTo,
		ProjectName:   t.ProjectName,
		ExpectedHours: t.ExpectedHours,
		Status:        model.Status(t.Status),
		Department:    model.Department(t.Department),
		Remark:        model.Remark(t.Remark),
		Message:       t.Message,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func summaryFromRow(s store.TaskSummary) model.TaskSummary {
	return model.TaskSummary{
		Task:            taskFromRow(s.Task),
		TotalHoursSpent: s.TotalHoursSpent,
	}
}

func summariesFromRows(rows []store.TaskSummary) []model.TaskSummary {
	out := make([]model.TaskSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, summaryFromRow(r))
	}
	return out
}

func entryFromRow(h store.TaskHour) model.TimeLogEntry {
	// log_date is written by this package in DateLayout; a bad value stays zero.
	date, _ := time.ParseInLocation(model.DateLayout, h.LogDate, time.Local)
	return model.TimeLogEntry{
		ID:         h.ID,
		TaskID:     h.TaskID,
		UserEmail:  h.UserEmail,
		HoursSpent: h.HoursSpent,
		LogDate:    date,
		CreatedAt:  h.CreatedAt,
	}
}
