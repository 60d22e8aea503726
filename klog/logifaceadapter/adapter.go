// Package logifaceadapter adapts a github.com/joeycumines/logiface logger
// (backed by github.com/joeycumines/stumpy's JSON event writer) to the
// kernel's klog.Logger interface, the same way
// github.com/joeycumines/go-utilpkg/eventloop treats its own Logger
// interface as a seam other logging ecosystems plug into.
package logifaceadapter

import (
	"io"
	"os"

	"github.com/joeycumines/go-rtos/klog"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Adapter wraps a *logiface.Logger[*stumpy.Event] to satisfy klog.Logger.
type Adapter struct {
	logger *logiface.Logger[*stumpy.Event]
}

// New builds an Adapter writing stumpy-encoded JSON lines to w (os.Stderr
// if nil).
func New(w io.Writer) *Adapter {
	if w == nil {
		w = os.Stderr
	}
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](func(e *stumpy.Event) error {
			_, err := w.Write(append(e.Bytes(), '\n'))
			return err
		})),
	)
	return &Adapter{logger: logger}
}

func apply(b *logiface.Builder[*stumpy.Event], msg string, fields []klog.Field) {
	for _, f := range fields {
		b = b.Any(f.Key, f.Value)
	}
	b.Log(msg)
}

func (a *Adapter) Debug(msg string, fields ...klog.Field) { apply(a.logger.Debug(), msg, fields) }
func (a *Adapter) Info(msg string, fields ...klog.Field)  { apply(a.logger.Info(), msg, fields) }
func (a *Adapter) Warn(msg string, fields ...klog.Field)  { apply(a.logger.Warning(), msg, fields) }
func (a *Adapter) Error(msg string, fields ...klog.Field) { apply(a.logger.Err(), msg, fields) }

var _ klog.Logger = (*Adapter)(nil)
