package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

const DefaultMonitorSchedule = "@every 5m"

// Aceita cron de 5 campos e descritores como "@every 5m" e "@hourly".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type MonitorRunner interface {
	RunQueueMonitor(ctx context.Context) usecase.MonitorReport
}

type QueueMonitorWorker struct {
	runner     MonitorRunner
	schedule   cron.Schedule
	expr       string
	RunOnStart bool
	now        func() time.Time
}

func NewQueueMonitorWorker(runner MonitorRunner, expr string) (*QueueMonitorWorker, error) {
	if expr == "" {
		expr = DefaultMonitorSchedule
	}
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("agenda do monitor inválida %q: %w", expr, err)
	}
	return &QueueMonitorWorker{
		runner:   runner,
		schedule: sched,
		expr:     expr,
		now:      time.Now,
	}, nil
}

// NextRun devolve o próximo disparo depois de t.
func (w *QueueMonitorWorker) NextRun(t time.Time) time.Time {
	return w.schedule.Next(t)
}

// Start bloqueia até o ctx ser cancelado. Execuções não se sobrepõem: a próxima
// é agendada a partir do fim da anterior.
func (w *QueueMonitorWorker) Start(ctx context.Context) {
	log.Printf("🕒 Queue Monitor Worker iniciado (%s)", w.expr)

	if w.RunOnStart {
		w.runOnce(ctx)
	}

	for {
		wait := w.NextRun(w.now()).Sub(w.now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("⚠️ Queue Monitor Worker encerrado")
			return
		case <-timer.C:
			w.runOnce(ctx)
		}
	}
}

func (w *QueueMonitorWorker) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Monitor de fila entrou em pânico: %v", r)
		}
	}()

	report := w.runner.RunQueueMonitor(ctx)
	if report.QueueSize > 0 {
		log.Printf("📊 Monitor de fila: %d na fila, %d urgentes", report.QueueSize, report.UrgentLeads)
	}
}
