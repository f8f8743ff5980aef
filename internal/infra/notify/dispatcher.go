// Package notify tira a entrega de notificações do caminho do roteamento:
// Notify só coloca na fila e um pool de workers grava e publica.
package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

var (
	ErrQueueFull = errors.New("fila de notificações cheia")
	ErrClosed    = errors.New("dispatcher encerrado")
)

const deliveryTimeout = 10 * time.Second

// Sink é um destino da notificação (banco, RabbitMQ...).
type Sink interface {
	Deliver(ctx context.Context, n *entity.Notification) error
}

type SinkFunc func(ctx context.Context, n *entity.Notification) error

func (f SinkFunc) Deliver(ctx context.Context, n *entity.Notification) error {
	return f(ctx, n)
}

// NamedSink dá nome ao sink nos logs.
func NamedSink(name string, s Sink) Sink {
	return namedSink{name: name, Sink: s}
}

type namedSink struct {
	name string
	Sink
}

type Dispatcher struct {
	jobs    chan *entity.Notification
	sinks   []Sink
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(buffer, workers int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 2
	}
	return &Dispatcher{
		jobs:    make(chan *entity.Notification, buffer),
		sinks:   sinks,
		workers: workers,
	}
}

// Notify nunca bloqueia: com a fila cheia devolve ErrQueueFull.
func (d *Dispatcher) Notify(ctx context.Context, n *entity.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.jobs <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for n := range d.jobs {
				d.deliver(ctx, n)
			}
		}()
	}
	log.Printf("✅ Dispatcher de notificações iniciado (%d workers)", d.workers)
}

// Close para de aceitar notificações e espera a fila esvaziar.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

// Pending é quantas notificações ainda esperam um worker.
func (d *Dispatcher) Pending() int {
	return len(d.jobs)
}

// deliver passa por todos os sinks; a falha de um não impede os seguintes.
func (d *Dispatcher) deliver(ctx context.Context, n *entity.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	for _, s := range d.sinks {
		if err := s.Deliver(ctx, n); err != nil {
			log.Printf("❌ Falha ao entregar notificação %s (%s) em %s: %v", n.ID, n.Type, sinkName(s), err)
		}
	}
}

func sinkName(s Sink) string {
	if ns, ok := s.(namedSink); ok {
		return ns.name
	}
	return "sink"
}
