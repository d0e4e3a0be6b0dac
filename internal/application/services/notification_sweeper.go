package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskhive/core/internal/domain/entities"
	"github.com/taskhive/core/internal/infrastructure/logger"
	"github.com/taskhive/core/internal/ports"
)

var (
	sweepRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_sweep_runs_total",
		Help: "Total number of reminder sweep runs",
	})
	remindersSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminders_sent_total",
		Help: "Total number of reminder emails sent",
	})
	reminderFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_dispatch_failures_total",
		Help: "Total number of failed reminder dispatches",
	})
)

func init() {
	prometheus.MustRegister(sweepRunsTotal, remindersSentTotal, reminderFailuresTotal)
}

const reminderTemplate = `<h2>{{if .Overdue}}Task overdue{{else}}Task due soon{{end}}: {{.Task.Title}}</h2>
{{if .Task.Description}}<p>{{.Task.Description}}</p>{{end}}
<p><strong>Due:</strong> {{.DueDate}}<br><strong>Priority:</strong> {{.Task.Priority}}</p>
{{if .Task.Subtasks}}<ul>
{{range .Task.Subtasks}}<li>{{if .IsCompleted}}&#9745;{{else}}&#9744;{{end}} {{.Title}}</li>
{{end}}</ul>{{end}}`

var reminderTmpl = template.Must(template.New("reminder").Parse(reminderTemplate))

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Scanned int
	Sent    int
	Failed  int
}

// NotificationSweeper finds due and overdue tasks and emails their owners,
// at most once per task. The notification flag is only flipped after a
// confirmed send, so a crash between send and flag-write can duplicate an
// email but never silence one. It keeps no state across runs: eligibility is
// re-read from the store every time.
type NotificationSweeper struct {
	taskRepo ports.TaskRepository
	mailer   ports.Mailer
	window   time.Duration
	logger   *logger.Logger
}

// NewNotificationSweeper creates a new sweeper. window is how far ahead of
// now a due date still counts as "due soon".
func NewNotificationSweeper(taskRepo ports.TaskRepository, mailer ports.Mailer, window time.Duration, logger *logger.Logger) *NotificationSweeper {
	return &NotificationSweeper{
		taskRepo: taskRepo,
		mailer:   mailer,
		window:   window,
		logger:   logger.WithComponent("sweeper"),
	}
}

// Sweep runs one scan-and-dispatch pass. A failed dispatch is logged and
// skipped; the flag stays false and the next run retries it. One task's
// failure never stops the rest of the run.
func (s *NotificationSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	sweepRunsTotal.Inc()
	now := time.Now()

	overdue, err := s.taskRepo.FindOverdueUnnotified(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to scan overdue tasks: %w", err)
	}

	upcoming, err := s.taskRepo.FindDueWithinWindow(ctx, now, now.Add(s.window))
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to scan upcoming tasks: %w", err)
	}

	var result SweepResult
	seen := make(map[int64]bool)

	for _, rt := range append(overdue, upcoming...) {
		if seen[rt.Task.ID] {
			continue
		}
		seen[rt.Task.ID] = true
		result.Scanned++

		if err := s.dispatch(ctx, rt, now); err != nil {
			result.Failed++
			reminderFailuresTotal.Inc()
			s.logger.Warnw("Reminder dispatch failed",
				"task_id", rt.Task.ID,
				"owner_email", rt.OwnerEmail,
				"error", err,
			)
			continue
		}

		result.Sent++
		remindersSentTotal.Inc()
	}

	s.logger.Infow("Sweep completed",
		"scanned", result.Scanned,
		"sent", result.Sent,
		"failed", result.Failed,
	)

	return result, nil
}

// dispatch sends one reminder and marks the task notified. The mark happens
// only after the send succeeded.
func (s *NotificationSweeper) dispatch(ctx context.Context, rt ports.ReminderTask, now time.Time) error {
	overdue := rt.Task.DueDate != nil && rt.Task.DueDate.Before(now)

	subject := fmt.Sprintf("Reminder: %q is due soon", rt.Task.Title)
	if overdue {
		subject = fmt.Sprintf("Reminder: %q is overdue", rt.Task.Title)
	}

	body, err := renderReminder(rt.Task, overdue)
	if err != nil {
		return fmt.Errorf("failed to render reminder: %w", err)
	}

	if err := s.mailer.Send(rt.OwnerEmail, subject, body); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	if err := s.taskRepo.MarkNotificationSent(ctx, rt.Task.ID); err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	return nil
}

func renderReminder(task entities.Task, overdue bool) (string, error) {
	dueDate := ""
	if task.DueDate != nil {
		dueDate = task.DueDate.Format("Mon, 02 Jan 2006 15:04 MST")
	}

	var buf bytes.Buffer
	err := reminderTmpl.Execute(&buf, struct {
		Task    entities.Task
		Overdue bool
		DueDate string
	}{Task: task, Overdue: overdue, DueDate: dueDate})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
